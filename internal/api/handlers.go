package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docfind/internal/apperr"
	"github.com/starford/docfind/internal/docservice"
	"github.com/starford/docfind/internal/sse"
)

// maxTopK caps the k query parameter.
const maxTopK = 200

// Handler holds API route handlers.
type Handler struct {
	ctx    context.Context
	svc    *docservice.Service
	broker *sse.Broker
	jobs   *Jobs
}

// NewHandler creates a new Handler. Index jobs run under ctx.
func NewHandler(ctx context.Context, svc *docservice.Service, broker *sse.Broker) *Handler {
	return &Handler{ctx: ctx, svc: svc, broker: broker, jobs: NewJobs()}
}

// Search handles GET /api/search.
//
//	@Summary		Semantic search across indexed documents
//	@Tags			search
//	@Produce		json
//	@Param			q			query		string	true	"Search query"
//	@Param			k			query		int		false	"Max results"
//	@Param			type		query		string	false	"File type filter, e.g. pdf"
//	@Param			distinct	query		bool	false	"Best chunk per file only"
//	@Success		200			{object}	SearchResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}

	var opts docservice.SearchOptions
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("k must be a positive integer"))
			return
		}
		opts.TopK = min(k, maxTopK)
	}
	opts.Type = r.URL.Query().Get("type")
	if raw := r.URL.Query().Get("distinct"); raw != "" {
		d, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("distinct must be a boolean"))
			return
		}
		opts.Distinct = d
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   q,
		Results: h.svc.Search(r.Context(), q, opts),
	})
}

// StartIndex handles POST /api/index.
//
//	@Summary		Start an asynchronous index run over one or more directories
//	@Tags			index
//	@Accept			json
//	@Produce		json
//	@Param			body	body		IndexRequest	true	"Directories to index"
//	@Success		202		{object}	IndexAccepted
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/index [post]
func (h *Handler) StartIndex(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	paths := make([]string, 0, len(req.Paths))
	for _, p := range req.Paths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("paths is required"))
		return
	}

	job, err := h.jobs.Start(paths)
	if err != nil {
		writeJSON(w, http.StatusConflict, errorBody("an index job is already running"))
		return
	}
	go h.runJob(job)

	writeJSON(w, http.StatusAccepted, IndexAccepted{JobID: job.ID, Status: job.Status})
}

func (h *Handler) runJob(job Job) {
	h.publish(sse.Event{Type: sse.TypeIndexStarted, Data: map[string]any{
		"job_id": job.ID,
		"paths":  job.Paths,
	}})

	progress := func(processed int, filename string) {
		if h.broker != nil {
			h.broker.PublishProgress(sse.Progress{JobID: job.ID, Processed: processed, Filename: filename})
		}
	}

	var (
		reports []docservice.Report
		err     error
	)
	for _, p := range job.Paths {
		var report docservice.Report
		report, err = h.svc.IndexDirectory(h.ctx, p, progress)
		reports = append(reports, report)
		if err != nil {
			slog.Error("index job failed",
				slog.String("job_id", job.ID), slog.String("path", p), slog.String("error", err.Error()))
			break
		}
	}
	h.jobs.Finish(job.ID, reports, err)

	final, _ := h.jobs.Get(job.ID)
	eventType := sse.TypeIndexCompleted
	if err != nil {
		eventType = sse.TypeIndexFailed
	}
	if h.broker != nil {
		h.broker.FinishJob(job.ID, sse.Event{Type: eventType, Data: final})
	}
}

// GetJob handles GET /api/index/{id}.
//
//	@Summary		Get the status of an index job
//	@Tags			index
//	@Produce		json
//	@Param			id	path		string	true	"Job id"
//	@Success		200	{object}	Job
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/index/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobs.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Stats handles GET /api/stats.
//
//	@Summary		Store statistics
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Reset handles POST /api/reset.
//
//	@Summary		Remove everything from the store
//	@Tags			index
//	@Success		204	"Store reset"
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reset [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			writeJSON(w, http.StatusConflict, errorBody("an index run is in progress"))
		} else {
			slog.Error("reset failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	h.publish(sse.Event{Type: sse.TypeStoreReset, Data: map[string]string{}})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publish(ev sse.Event) {
	if h.broker != nil {
		h.broker.Publish(ev)
	}
}
