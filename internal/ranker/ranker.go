// Package ranker re-scores vector-store candidates with lexical boosts so
// exact filename and content matches rise above purely semantic neighbours.
package ranker

import (
	"slices"
	"strings"

	"github.com/starford/docfind/internal/index"
	"github.com/starford/docfind/internal/models"
)

// Boost weights added to the base similarity.
const (
	FilenameBoost = 0.25
	TextBoost     = 0.15
	SheetBoost    = 0.15
)

// CandidateFactor is how many candidates per requested result callers should
// fetch from the store before ranking.
const CandidateFactor = 3

// Rank scores each hit as (1 - distance) plus lexical boosts, clamps the
// score to [0, 1], sorts descending and truncates to topK. Ties keep the
// order of hits. An empty query or non-positive topK yields no results.
func Rank(query string, hits []index.Hit, topK int) []models.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || topK <= 0 {
		return []models.SearchResult{}
	}
	tokens := strings.Fields(q)

	out := make([]models.SearchResult, 0, len(hits))
	for _, h := range hits {
		score := 1 - h.Distance
		if filenameMatches(strings.ToLower(h.Chunk.Metadata.Filename), q, tokens) {
			score += FilenameBoost
		}
		if strings.Contains(strings.ToLower(h.Chunk.Text), q) {
			score += TextBoost
		}
		if h.Chunk.SheetName != "" && strings.Contains(strings.ToLower(h.Chunk.SheetName), q) {
			score += SheetBoost
		}
		out = append(out, models.SearchResult{
			ChunkID:    h.Chunk.ID,
			Score:      clamp(score),
			Distance:   h.Distance,
			Text:       h.Chunk.Text,
			ChunkIndex: h.Chunk.Index,
			SheetName:  h.Chunk.SheetName,
			Metadata:   h.Chunk.Metadata,
		})
	}

	slices.SortStableFunc(out, func(a, b models.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// Distinct keeps the best-ranked result per source file, preserving order,
// and truncates to topK.
func Distinct(results []models.SearchResult, topK int) []models.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]models.SearchResult, 0, min(len(results), max(topK, 0)))
	for _, r := range results {
		if len(out) >= topK {
			break
		}
		key := r.Metadata.SourcePath
		if key == "" {
			key = r.Metadata.Filename
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// filenameMatches reports whether the query occurs in the file name, or
// every query token does.
func filenameMatches(filename, query string, tokens []string) bool {
	if filename == "" {
		return false
	}
	if strings.Contains(filename, query) {
		return true
	}
	if len(tokens) < 2 {
		return false
	}
	for _, tok := range tokens {
		if !strings.Contains(filename, tok) {
			return false
		}
	}
	return true
}

func clamp(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
