package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/docfind/internal/index"
	"github.com/starford/docfind/internal/models"
)

func hit(id, filename, text string, distance float64) index.Hit {
	return index.Hit{
		Chunk: models.Chunk{
			ID:       id,
			Text:     text,
			Metadata: models.Metadata{Filename: filename, SourcePath: "/docs/" + filename},
		},
		Distance: distance,
	}
}

func TestRank_FilenameBoostWinsCloseCall(t *testing.T) {
	hits := []index.Hit{
		hit("notes_chunk_0", "notes.txt", "meeting notes about the quarter", 0.30),
		hit("report_chunk_0", "report_q3.pdf", "revenue grew in the period", 0.32),
	}

	results := Rank("q3 report", hits, 5)
	require.Len(t, results, 2)
	assert.Equal(t, "report_q3.pdf", results[0].Metadata.Filename)
	assert.Equal(t, "notes.txt", results[1].Metadata.Filename)
}

func TestRank_BoundsAndTruncation(t *testing.T) {
	hits := []index.Hit{
		hit("a", "budget.xlsx", "budget budget", 0.0),
		hit("b", "x.txt", "budget", -0.5),
		hit("c", "y.txt", "nothing", 1.9),
		hit("d", "z.txt", "nothing", 0.5),
	}
	hits[0].Chunk.SheetName = "Budget 2024"

	for k := 0; k <= 5; k++ {
		results := Rank("Budget", hits, k)
		assert.LessOrEqual(t, len(results), k)
		for _, r := range results {
			assert.GreaterOrEqual(t, r.Score, 0.0)
			assert.LessOrEqual(t, r.Score, 1.0)
		}
	}
}

func TestRank_Boosts(t *testing.T) {
	h := hit("a", "plain.txt", "the budget plan", 0.6)
	h.Chunk.SheetName = "Budget"

	results := Rank("  BUDGET ", []index.Hit{h}, 1)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.4+TextBoost+SheetBoost, results[0].Score, 1e-9)
	assert.InDelta(t, 0.6, results[0].Distance, 1e-9)
}

func TestRank_TiesKeepCandidateOrder(t *testing.T) {
	hits := []index.Hit{
		hit("first", "a.txt", "x", 0.2),
		hit("second", "b.txt", "y", 0.2),
		hit("third", "c.txt", "z", 0.2),
	}
	results := Rank("unrelated", hits, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].ChunkID)
	assert.Equal(t, "second", results[1].ChunkID)
	assert.Equal(t, "third", results[2].ChunkID)
}

func TestRank_EmptyQuery(t *testing.T) {
	results := Rank("   ", []index.Hit{hit("a", "a.txt", "x", 0.1)}, 5)
	assert.Empty(t, results)
}

func TestRank_SingleTokenNeedsSubstring(t *testing.T) {
	assert.False(t, filenameMatches("notes.txt", "report", []string{"report"}))
	assert.True(t, filenameMatches("report_q3.pdf", "q3 report", []string{"q3", "report"}))
	assert.False(t, filenameMatches("report.pdf", "q3 report", []string{"q3", "report"}))
}

func TestDistinct(t *testing.T) {
	results := []models.SearchResult{
		{ChunkID: "a0", Metadata: models.Metadata{SourcePath: "/a"}},
		{ChunkID: "a1", Metadata: models.Metadata{SourcePath: "/a"}},
		{ChunkID: "b0", Metadata: models.Metadata{SourcePath: "/b"}},
		{ChunkID: "c0", Metadata: models.Metadata{SourcePath: "/c"}},
	}
	out := Distinct(results, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "a0", out[0].ChunkID)
	assert.Equal(t, "b0", out[1].ChunkID)
}
