package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/docfind/internal/apperr"
	"github.com/starford/docfind/internal/extract"
	"github.com/starford/docfind/internal/models"
	"github.com/starford/docfind/internal/scanner"
)

// ProgressFunc is called once per ingested document with the running count
// and the document's file name.
type ProgressFunc func(processed int, filename string)

// IngestStats summarises one ingestion run.
type IngestStats struct {
	Documents     int `json:"documents"`
	Chunks        int `json:"chunks"`
	FailedBatches int `json:"failed_batches"`
	Rejected      int `json:"rejected"`
}

// Report is the outcome of indexing a directory. It is returned even when
// the run fails part way.
type Report struct {
	Root      string        `json:"root"`
	Scanned   int           `json:"scanned"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Dropped   int           `json:"dropped"`
	Removed   int           `json:"removed"`
	Chunks    int           `json:"chunks"`
	Duration  time.Duration `json:"duration"`
}

// IndexDirectory brings the store up to date with the files under root.
// Unchanged files are skipped; new and modified files are extracted,
// chunked, embedded and written in batches. With stale pruning on,
// documents whose file has disappeared from root are removed afterwards.
//
// A concurrent run fails with apperr.ErrConflict. Batches flushed before an
// error remain in the store. Dropped is only reported for runs that finish.
func (s *Service) IndexDirectory(ctx context.Context, root string, progress ProgressFunc) (report Report, err error) {
	report = Report{Root: root}
	if !s.writeMu.TryLock() {
		return report, fmt.Errorf("docservice: index %s: %w", root, apperr.ErrConflict)
	}
	defer s.writeMu.Unlock()

	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	if abs, err := filepath.Abs(root); err == nil {
		report.Root = abs
	}

	paths, err := s.scanner.Scan(report.Root)
	if err != nil {
		return report, err
	}
	report.Scanned = len(paths)

	known, err := s.store.KnownIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("docservice: known ids: %w", err)
	}
	c := scanner.Classify(paths, known)
	report.Skipped = len(c.Skip)

	s.logger.Info("index: scan complete",
		slog.String("root", report.Root),
		slog.Int("files", len(paths)),
		slog.Int("process", len(c.Process)),
		slog.Int("skip", len(c.Skip)))

	// Cancelling runCtx releases pipeline workers if ingestion stops early.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stats, err := s.ingest(runCtx, s.pipeline.Run(runCtx, c.Process), progress)
	report.Processed = stats.Documents
	report.Chunks = stats.Chunks
	if err != nil {
		return report, err
	}
	report.Dropped = len(c.Process) - stats.Documents - stats.Rejected

	if s.pruneStale {
		removed, err := s.removeMissing(ctx, report.Root, paths)
		report.Removed = removed
		if err != nil {
			return report, err
		}
	}

	s.logger.Info("index: run complete",
		slog.String("root", report.Root),
		slog.Int("processed", report.Processed),
		slog.Int("skipped", report.Skipped),
		slog.Int("chunks", report.Chunks),
		slog.Int("removed", report.Removed))
	return report, nil
}

// Ingest writes documents from any source into the store. It returns when
// docs is closed, ctx is cancelled, or the embedding provider fails. On
// cancellation the pending batch is still written before ctx.Err() is
// returned.
func (s *Service) Ingest(ctx context.Context, docs <-chan models.Document, progress ProgressFunc) (IngestStats, error) {
	if !s.writeMu.TryLock() {
		return IngestStats{}, fmt.Errorf("docservice: ingest: %w", apperr.ErrConflict)
	}
	defer s.writeMu.Unlock()
	return s.ingest(ctx, docs, progress)
}

func (s *Service) ingest(ctx context.Context, docs <-chan models.Document, progress ProgressFunc) (IngestStats, error) {
	var stats IngestStats
	batch := make([]models.Chunk, 0, s.batchSize)

	flush := func(ctx context.Context) error {
		if len(batch) == 0 {
			return nil
		}
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vecs, err := s.embedder.EmbedDocuments(ctx, texts)
		if err == nil && len(vecs) != len(batch) {
			err = fmt.Errorf("%w: got %d vectors for %d chunks", apperr.ErrEmbeddingUnavailable, len(vecs), len(batch))
		}
		if err != nil {
			return fmt.Errorf("docservice: embed batch: %w", err)
		}
		for i := range batch {
			batch[i].Vector = vecs[i]
		}
		if err := s.store.UpsertChunks(ctx, batch); err != nil {
			stats.FailedBatches++
			s.logger.Warn("index: batch discarded",
				slog.Int("chunks", len(batch)), slog.String("error", err.Error()))
		} else {
			stats.Chunks += len(batch)
		}
		batch = make([]models.Chunk, 0, s.batchSize)
		return nil
	}

	for {
		var (
			doc models.Document
			ok  bool
		)
		select {
		case <-ctx.Done():
			if err := flush(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("index: final batch lost", slog.String("error", err.Error()))
			}
			return stats, ctx.Err()
		case doc, ok = <-docs:
		}
		if !ok {
			break
		}
		if err := validate(&doc); err != nil {
			stats.Rejected++
			s.logger.Warn("index: document rejected", slog.String("error", err.Error()))
			continue
		}

		stats.Documents++
		if progress != nil {
			progress(stats.Documents, doc.Metadata.Filename)
		}
		for _, c := range s.chunkDocument(doc) {
			batch = append(batch, c)
			if len(batch) >= s.batchSize {
				if err := flush(ctx); err != nil {
					return stats, err
				}
			}
		}
	}
	return stats, flush(ctx)
}

var errNoID = errors.New("document has no id")

// validate rejects documents without an identity and fills the filename
// invariants.
func validate(doc *models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: %q", errNoID, doc.Metadata.SourcePath)
	}
	if doc.Metadata.Filename == "" && doc.Metadata.SourcePath != "" {
		doc.Metadata.Filename = filepath.Base(doc.Metadata.SourcePath)
	}
	if strings.TrimSpace(doc.Content) == "" {
		doc.Content = doc.Metadata.Filename
	}
	if doc.Content == "" {
		doc.Content = doc.ID
	}
	return nil
}

// chunkDocument splits doc into chunks. Spreadsheet chunks carry the name
// of the sheet they fall in.
func (s *Service) chunkDocument(doc models.Document) []models.Chunk {
	texts := s.chunker.Split(doc.Content)
	out := make([]models.Chunk, len(texts))
	sheet := ""
	for i, t := range texts {
		if name := lastSheet(t, doc.Sheets); name != "" {
			sheet = name
		}
		out[i] = models.Chunk{
			ID:         models.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Index:      i,
			Text:       t,
			Metadata:   doc.Metadata,
			SheetName:  sheet,
		}
	}
	return out
}

// lastSheet returns the sheet whose marker occurs last in text. The longest
// name wins when markers share a position.
func lastSheet(text string, sheets []string) string {
	best, bestIdx := "", -1
	for _, name := range sheets {
		idx := strings.LastIndex(text, extract.SheetMarker+name)
		if idx < 0 {
			continue
		}
		if idx > bestIdx || (idx == bestIdx && len(name) > len(best)) {
			best, bestIdx = name, idx
		}
	}
	return best
}

// removeMissing deletes documents stored under root whose file was not seen
// by the scan and no longer exists.
func (s *Service) removeMissing(ctx context.Context, root string, scanned []string) (int, error) {
	seen := make(map[string]struct{}, len(scanned))
	for _, p := range scanned {
		seen[p] = struct{}{}
	}
	stored, err := s.store.SourcePaths(ctx)
	if err != nil {
		return 0, fmt.Errorf("docservice: source paths: %w", err)
	}

	prefix := strings.TrimSuffix(root, string(filepath.Separator)) + string(filepath.Separator)
	removed := 0
	for _, p := range stored {
		if p != root && !strings.HasPrefix(p, prefix) {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			continue
		}
		if _, err := s.store.DeleteBySource(ctx, p, ""); err != nil {
			return removed, fmt.Errorf("docservice: remove %s: %w", p, err)
		}
		s.logger.Debug("index: removed missing", slog.String("path", p))
		removed++
	}
	return removed, nil
}
