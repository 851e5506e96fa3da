//go:build !sqlite_fts5

package index

import (
	"context"
	"fmt"
)

func initFTS(context.Context, execer) error { return nil }

func dropFTS(context.Context, execer) error { return nil }

// ftsUpsert is a no-op: chunk text already lives in the chunks table.
func ftsUpsert(context.Context, execer, string, string, string) error { return nil }

func ftsDeleteWhere(context.Context, execer, string, ...any) error { return nil }

// Keyword performs a case-insensitive LIKE search over chunk text and file
// names. It serves queries while the embedding provider is unavailable.
func (db *DB) Keyword(ctx context.Context, query string, limit int, filter Filter) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.conn == nil || query == "" {
		return []Hit{}, nil
	}

	like := "%" + escapeLike(query) + "%"
	where, args := filter.where(`(text LIKE ? ESCAPE '\' OR filename LIKE ? ESCAPE '\')`, like, like)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+columns("")+` FROM chunks WHERE `+where+` ORDER BY id LIMIT ?`,
		append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("index: keyword: %w", err)
	}
	defer rows.Close()
	return scanKeywordHits(rows)
}
