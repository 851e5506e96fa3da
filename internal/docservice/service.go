// Package docservice coordinates the write path (scan, extract, chunk,
// embed, store) and the read path (embed query, over-fetch, rank).
package docservice

import (
	"io"
	"log/slog"
	"sync"

	"github.com/starford/docfind/internal/chunker"
	"github.com/starford/docfind/internal/embedding"
	"github.com/starford/docfind/internal/extract"
	"github.com/starford/docfind/internal/index"
	"github.com/starford/docfind/internal/scanner"
)

// Defaults used when no option overrides them.
const (
	DefaultBatchSize = 100
	DefaultTopK      = 10
)

// Service is the single writer for a store and serves searches against it.
type Service struct {
	store    index.Store
	embedder embedding.Provider
	scanner  *scanner.Scanner
	pipeline *extract.Pipeline
	chunker  *chunker.Chunker
	logger   *slog.Logger

	batchSize  int
	topK       int
	pruneStale bool

	// writeMu serialises index runs and resets.
	writeMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithScanner sets the directory scanner.
func WithScanner(sc *scanner.Scanner) Option {
	return func(s *Service) { s.scanner = sc }
}

// WithPipeline sets the extraction pipeline.
func WithPipeline(p *extract.Pipeline) Option {
	return func(s *Service) { s.pipeline = p }
}

// WithChunker sets the chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(s *Service) { s.chunker = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBatchSize sets how many chunks are embedded and written together.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithTopK sets the default number of search results.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithPruneStale controls whether directory runs remove documents whose file
// has disappeared from the scanned root.
func WithPruneStale(on bool) Option {
	return func(s *Service) { s.pruneStale = on }
}

// New creates a Service over store and embedder.
func New(store index.Store, embedder embedding.Provider, opts ...Option) *Service {
	s := &Service{
		store:      store,
		embedder:   embedder,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		batchSize:  DefaultBatchSize,
		topK:       DefaultTopK,
		pruneStale: true,
	}
	for _, o := range opts {
		o(s)
	}
	if s.scanner == nil {
		s.scanner = scanner.New(scanner.DefaultSkipPolicy(), extract.SupportedExtensions())
	}
	if s.pipeline == nil {
		s.pipeline = extract.NewPipeline(extract.WithLogger(s.logger))
	}
	if s.chunker == nil {
		s.chunker = chunker.New()
	}
	return s
}
