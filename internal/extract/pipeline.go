package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/docfind/internal/checksum"
	"github.com/starford/docfind/internal/models"
)

// maxWorkers caps the default pool size.
const maxWorkers = 32

// DefaultWorkers sizes the pool for I/O-bound extraction: four workers per
// CPU, at most 32.
func DefaultWorkers() int {
	return min(maxWorkers, runtime.NumCPU()*4)
}

// Pipeline maps file paths to Documents on a bounded worker pool.
type Pipeline struct {
	workers    int
	logger     *slog.Logger
	extractors map[string]Extractor
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the pool size. Values below one select DefaultWorkers.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger used for dropped and degraded files.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithExtractor registers fn for the given extension, replacing any default.
func WithExtractor(ext string, fn Extractor) Option {
	return func(p *Pipeline) {
		p.extractors[strings.ToLower(ext)] = fn
	}
}

// NewPipeline creates a Pipeline with the default extractor set.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		workers:    DefaultWorkers(),
		logger:     slog.Default(),
		extractors: make(map[string]Extractor, len(defaultExtractors)),
	}
	for ext, fn := range defaultExtractors {
		p.extractors[ext] = fn
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run extracts every path concurrently and streams Documents as they
// complete, in no particular order. Files that cannot be stat'ed or whose
// extractor panics are dropped. The channel is closed once all workers have
// returned; cancelling ctx stops outstanding work. Callers that stop reading
// before the channel is closed must cancel ctx, or workers stay blocked on
// send.
func (p *Pipeline) Run(ctx context.Context, paths []string) <-chan models.Document {
	out := make(chan models.Document)
	go func() {
		defer close(out)
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers)
		for _, path := range paths {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				doc, ok := p.Extract(path)
				if !ok {
					return nil
				}
				select {
				case out <- doc:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return out
}

// Extract builds the Document for a single file. ok is false when the file
// was dropped.
func (p *Pipeline) Extract(path string) (doc models.Document, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("extract: extractor panic",
				slog.String("path", path), slog.String("error", fmt.Sprint(r)))
			doc, ok = models.Document{}, false
		}
	}()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		p.logger.Warn("extract: stat failed", slog.String("path", abs), slog.String("error", err.Error()))
		return models.Document{}, false
	}
	if info.IsDir() {
		return models.Document{}, false
	}

	ext := extOf(abs)
	name := filepath.Base(abs)

	var res Extraction
	if fn, found := p.extractors[ext]; found {
		res, err = fn(abs)
		if err != nil {
			p.logger.Warn("extract: degraded to filename",
				slog.String("path", abs), slog.String("error", err.Error()))
			res = Extraction{}
		}
	}

	content := Clean(res.Text)
	if content == "" {
		content = name
	}
	return models.Document{
		ID:      checksum.DocumentID(abs, info.ModTime()),
		Content: content,
		Metadata: models.Metadata{
			SourcePath:   abs,
			Filename:     name,
			ModifiedTime: info.ModTime(),
			SizeBytes:    info.Size(),
			Type:         ext,
		},
		Sheets: res.Sheets,
	}, true
}
