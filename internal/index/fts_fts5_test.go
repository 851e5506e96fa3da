//go:build sqlite_fts5

package index

import (
	"context"
	"testing"

	"github.com/starford/docfind/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM chunks_fts`).Scan(&count); err != nil {
		t.Fatalf("chunks_fts table missing: %v", err)
	}
}

func TestFTS5_KeywordMatchesFilename(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertChunks(ctx, []models.Chunk{chunk("a", 0, "/d/budget.txt", "numbers only", 1)})

	hits, err := db.Keyword(ctx, "budget", 10, Filter{})
	if err != nil {
		t.Fatalf("Keyword: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertChunks(ctx, []models.Chunk{chunk("gone", 0, "/d/g.txt", "vanishing content", 1)})
	_, _ = db.DeleteDocument(ctx, "gone")

	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM chunks_fts`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("fts rows = %d after delete", count)
	}
}

func TestFTS5_QuotesUserInput(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertChunks(ctx, []models.Chunk{chunk("a", 0, "/d/a.txt", "alpha beta", 1)})

	if _, err := db.Keyword(ctx, `alpha" OR NEAR(`, 10, Filter{}); err != nil {
		t.Fatalf("Keyword with FTS syntax: %v", err)
	}
}

func TestFTS5_ResetDropsFTS(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertChunks(ctx, []models.Chunk{chunk("a", 0, "/d/a.txt", "alpha", 1)})
	if err := db.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	hits, _ := db.Keyword(ctx, "alpha", 10, Filter{})
	if len(hits) != 0 {
		t.Errorf("hits after reset = %d", len(hits))
	}
}
