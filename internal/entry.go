// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/docfind/internal/api"
	"github.com/starford/docfind/internal/chunker"
	"github.com/starford/docfind/internal/docservice"
	"github.com/starford/docfind/internal/embedding"
	"github.com/starford/docfind/internal/extract"
	"github.com/starford/docfind/internal/index"
	"github.com/starford/docfind/internal/mcpserver"
	"github.com/starford/docfind/internal/scanner"
	"github.com/starford/docfind/internal/sse"
	"github.com/starford/docfind/internal/storage"
)

// App is a wired document index: store, embedder and service.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Service *docservice.Service

	db      *index.DB
	version string
}

// Open builds the application from options. Callers must Close it.
func Open(opts ...Option) (*App, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("data_dir", cfg.Index.DataDir),
		slog.String("embedder", cfg.Embedder.Provider),
		slog.Bool("prune_stale", cfg.Index.PruneStale),
		slog.String("log_level", cfg.App.LogLevel.String()))

	dir, err := storage.NewFS(cfg.Index.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(dir,
		index.WithLogger(logger),
		index.WithPruneStale(cfg.Index.PruneStale),
		index.WithReleaseWait(cfg.Index.ReleaseWait))
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	embedder, err := embedding.New(cfg.Embedder.Embedding())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	pipelineOpts := []extract.Option{extract.WithLogger(logger)}
	if cfg.Index.Workers > 0 {
		pipelineOpts = append(pipelineOpts, extract.WithWorkers(cfg.Index.Workers))
	}

	svc := docservice.New(db, embedder,
		docservice.WithLogger(logger),
		docservice.WithScanner(scanner.New(cfg.Scan.Policy(), extract.SupportedExtensions())),
		docservice.WithPipeline(extract.NewPipeline(pipelineOpts...)),
		docservice.WithChunker(chunker.New(
			chunker.WithChunkSize(cfg.Index.ChunkSize),
			chunker.WithOverlap(cfg.Index.ChunkOverlap))),
		docservice.WithBatchSize(cfg.Index.BatchSize),
		docservice.WithTopK(cfg.Search.TopK),
		docservice.WithPruneStale(cfg.Index.PruneStale),
	)

	return &App{Config: cfg, Logger: logger, Service: svc, db: db, version: app.version}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.db.Close()
}

// Run starts the HTTP server and the directory watcher with the given
// options, and blocks until ctx is cancelled or a signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	a, err := Open(opts...)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(ctx)
}

// Serve runs the HTTP API and the watcher until shutdown.
func (a *App) Serve(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	// Signals cancel the group so index jobs and the watcher stop too.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker := sse.NewBroker(sse.DefaultProgressInterval)
	defer broker.Close()

	g, gCtx := errgroup.WithContext(ctx)

	apiRouter := api.NewRouter(gCtx, a.Service, broker, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := a.Service.Stats(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if len(cfg.Watch.Paths) > 0 {
		g.Go(func() error {
			return a.Service.Watch(gCtx, cfg.Watch.Paths, cfg.Watch.Debounce, func(report docservice.Report, err error) {
				if err != nil {
					broker.Publish(sse.Event{Type: sse.TypeIndexFailed, Data: map[string]string{
						"root":  report.Root,
						"error": err.Error(),
					}})
					return
				}
				broker.Publish(sse.Event{Type: sse.TypeIndexCompleted, Data: report})
			})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects.
func (a *App) ServeMCP() error {
	a.Logger.Info("Starting MCP server", slog.String("data_dir", a.Config.Index.DataDir))
	return mcpserver.New(a.Service, a.version).ServeStdio()
}
