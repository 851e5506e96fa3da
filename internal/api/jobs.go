package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/docfind/internal/apperr"
	"github.com/starford/docfind/internal/docservice"
)

// Job states.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// maxJobs bounds how many finished jobs are remembered.
const maxJobs = 100

// Job is an asynchronous index run started over HTTP.
type Job struct {
	ID         string              `json:"job_id"`
	Paths      []string            `json:"paths"`
	Status     string              `json:"status"`
	Reports    []docservice.Report `json:"reports"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// Jobs tracks index jobs. At most one job runs at a time.
type Jobs struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	order   []string
	running string
}

// NewJobs creates an empty job tracker.
func NewJobs() *Jobs {
	return &Jobs{jobs: make(map[string]*Job)}
}

// Start registers a running job for paths. It fails with apperr.ErrConflict
// while another job is running.
func (j *Jobs) Start(paths []string) (Job, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running != "" {
		return Job{}, fmt.Errorf("api: job %s is running: %w", j.running, apperr.ErrConflict)
	}
	job := &Job{
		ID:        uuid.NewString(),
		Paths:     paths,
		Status:    JobRunning,
		Reports:   []docservice.Report{},
		StartedAt: time.Now().UTC(),
	}
	j.jobs[job.ID] = job
	j.order = append(j.order, job.ID)
	j.running = job.ID
	j.evict()
	return *job, nil
}

// Finish records the outcome of a job.
func (j *Jobs) Finish(id string, reports []docservice.Report, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	job, ok := j.jobs[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	job.FinishedAt = &now
	job.Reports = reports
	job.Status = JobCompleted
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
	}
	if j.running == id {
		j.running = ""
	}
}

// Get returns a copy of the job with the given id.
func (j *Jobs) Get(id string) (Job, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	job, ok := j.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// evict drops the oldest finished jobs beyond maxJobs.
func (j *Jobs) evict() {
	for len(j.order) > maxJobs {
		victim := -1
		for i, id := range j.order {
			if id != j.running {
				victim = i
				break
			}
		}
		if victim < 0 {
			return
		}
		delete(j.jobs, j.order[victim])
		j.order = append(j.order[:victim], j.order[victim+1:]...)
	}
}
