// Package sse implements a Server-Sent Events broker that streams index job
// progress to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types published by the server.
const (
	TypeIndexStarted   = "index.started"
	TypeIndexProgress  = "index.progress"
	TypeIndexCompleted = "index.completed"
	TypeIndexFailed    = "index.failed"
	TypeStoreReset     = "store.reset"
)

// DefaultProgressInterval is the minimum spacing of progress events per job.
const DefaultProgressInterval = 250 * time.Millisecond

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Progress is the payload of an index.progress event.
type Progress struct {
	JobID     string `json:"job_id"`
	Processed int    `json:"processed"`
	Filename  string `json:"filename"`
}

// envelope carries an event through the loop. Progress events are
// throttled per job; finish clears the job's throttle state.
type envelope struct {
	event    Event
	job      string
	throttle bool
	finish   bool
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop owns the client set and the per-job progress
// timestamps. Public methods talk to it over channels.
type Broker struct {
	progressMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan envelope
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one progress event per job
// every progressInterval.
func NewBroker(progressInterval time.Duration) *Broker {
	if progressInterval <= 0 {
		progressInterval = DefaultProgressInterval
	}

	b := &Broker{
		progressMin:   progressInterval,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan envelope, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	lastProgress := make(map[string]time.Time)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := fmt.Appendf(nil, "event: %s\ndata: %s\n\n", event.Type, payload)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case env := <-b.publishCh:
			if env.throttle {
				now := time.Now()
				if now.Sub(lastProgress[env.job]) < b.progressMin {
					continue
				}
				lastProgress[env.job] = now
			}
			if env.finish {
				delete(lastProgress, env.job)
			}
			broadcast(env.event)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	b.send(envelope{event: event})
}

// PublishProgress sends a throttled index.progress event for a job.
func (b *Broker) PublishProgress(p Progress) {
	b.send(envelope{
		event:    Event{Type: TypeIndexProgress, Data: p},
		job:      p.JobID,
		throttle: true,
	})
}

// FinishJob publishes the terminal event of a job after any progress it
// queued, and forgets its throttle state.
func (b *Broker) FinishJob(jobID string, event Event) {
	b.send(envelope{event: event, job: jobID, finish: true})
}

func (b *Broker) send(env envelope) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- env:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
