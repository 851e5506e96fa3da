package api

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docfind/internal/docservice"
	"github.com/starford/docfind/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// Index jobs run under ctx, so cancelling it stops them. broker may be nil,
// in which case no progress events are published and /events is not
// mounted.
func NewRouter(ctx context.Context, svc *docservice.Service, broker *sse.Broker, authEnabled bool, token string) chi.Router {
	h := NewHandler(ctx, svc, broker)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/search", h.Search)

	r.Post("/index", h.StartIndex)
	r.Get("/index/{id}", h.GetJob)

	r.Get("/stats", h.Stats)
	r.Post("/reset", h.Reset)

	if broker != nil {
		r.Get("/events", broker.ServeHTTP)
	}

	return r
}
