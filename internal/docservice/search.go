package docservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/docfind/internal/apperr"
	"github.com/starford/docfind/internal/index"
	"github.com/starford/docfind/internal/models"
	"github.com/starford/docfind/internal/ranker"
)

// distinctFactor widens the ranked window when results are deduplicated
// by file, so enough distinct files survive.
const distinctFactor = 5

// SearchOptions tune a single search.
type SearchOptions struct {
	// TopK is the maximum number of results; zero selects the default.
	TopK int
	// Type restricts results to one file extension, with or without the dot.
	Type string
	// Distinct keeps only the best chunk per file.
	Distinct bool
}

// Search answers a natural-language query with at most TopK ranked results.
// It never fails: provider or store errors are logged and yield a possibly
// empty list. When the embedding provider is unavailable the store's
// lexical search supplies the candidates.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) []models.SearchResult {
	q := strings.TrimSpace(query)
	if q == "" {
		return []models.SearchResult{}
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = s.topK
	}
	rankK := topK
	if opts.Distinct {
		rankK = topK * distinctFactor
	}
	candidateK := rankK * ranker.CandidateFactor
	filter := index.Filter{Type: NormalizeType(opts.Type)}

	hits, err := s.candidates(ctx, q, candidateK, filter)
	if err != nil {
		s.logger.Warn("search: failed", slog.String("query", q), slog.String("error", err.Error()))
		return []models.SearchResult{}
	}

	results := ranker.Rank(q, hits, rankK)
	if opts.Distinct {
		results = ranker.Distinct(results, topK)
	}
	return results
}

func (s *Service) candidates(ctx context.Context, q string, k int, filter index.Filter) ([]index.Hit, error) {
	vec, err := s.embedder.EmbedQuery(ctx, q)
	if err != nil {
		s.logger.Warn("search: embedding unavailable, using keyword search",
			slog.String("error", err.Error()))
		hits, kerr := s.store.Keyword(ctx, q, k, filter)
		if kerr != nil {
			return nil, fmt.Errorf("%w; keyword fallback: %w", err, kerr)
		}
		return hits, nil
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", apperr.ErrEmbeddingUnavailable)
	}
	return s.store.Query(ctx, vec, k, filter)
}

// NormalizeType turns "PDF", "pdf" or ".pdf" into ".pdf". Empty stays empty.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" || strings.HasPrefix(t, ".") {
		return t
	}
	return "." + t
}
