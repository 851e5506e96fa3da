package docservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/docfind/internal/apperr"
)

// Stats describes the store contents.
type Stats struct {
	Chunks    int    `json:"chunks"`
	Documents int    `json:"documents"`
	DataPath  string `json:"data_path"`
	SizeBytes int64  `json:"size_bytes"`
	Dimension int    `json:"dimension"`
}

// Stats reports chunk and document counts and the data directory.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	chunks, err := s.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("docservice: stats: %w", err)
	}
	docs, err := s.store.CountDocuments(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("docservice: stats: %w", err)
	}
	size, err := s.store.Size()
	if err != nil {
		s.logger.Warn("stats: size unavailable", slog.String("error", err.Error()))
	}
	return Stats{
		Chunks:    chunks,
		Documents: docs,
		DataPath:  s.store.Path(),
		SizeBytes: size,
		Dimension: s.embedder.Dimension(),
	}, nil
}

// Reset removes everything from the store. It fails with apperr.ErrConflict
// while an index run is in progress.
func (s *Service) Reset(ctx context.Context) error {
	if !s.writeMu.TryLock() {
		return fmt.Errorf("docservice: reset: %w", apperr.ErrConflict)
	}
	defer s.writeMu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("docservice: reset: %w", err)
	}
	s.logger.Info("index: store reset", slog.String("path", s.store.Path()))
	return nil
}
