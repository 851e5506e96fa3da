//go:build sqlite_fts5

package index

import (
	"context"
	"fmt"
	"strings"
)

func initFTS(ctx context.Context, ex execer) error {
	_, err := ex.ExecContext(ctx, `
		CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
			id UNINDEXED,
			filename,
			text,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func dropFTS(ctx context.Context, ex execer) error {
	_, err := ex.ExecContext(ctx, `DROP TABLE IF EXISTS chunks_fts`)
	return err
}

func ftsUpsert(ctx context.Context, ex execer, id, filename, text string) error {
	if _, err := ex.ExecContext(ctx, `DELETE FROM chunks_fts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	if _, err := ex.ExecContext(ctx, `INSERT INTO chunks_fts (id, filename, text) VALUES (?, ?, ?)`, id, filename, text); err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

// ftsDeleteWhere removes FTS rows for the chunks matched by a WHERE clause
// on the chunks table. It must run before the chunks themselves are deleted.
func ftsDeleteWhere(ctx context.Context, ex execer, where string, args ...any) error {
	_, err := ex.ExecContext(ctx, `DELETE FROM chunks_fts WHERE id IN (SELECT id FROM chunks WHERE `+where+`)`, args...)
	if err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// ftsQuery quotes every token so user input is never parsed as FTS syntax.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}

// Keyword performs an FTS5 search over chunk text and file names, best
// matches first. It serves queries while the embedding provider is
// unavailable.
func (db *DB) Keyword(ctx context.Context, query string, limit int, filter Filter) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	match := ftsQuery(query)
	if db.conn == nil || match == "" {
		return []Hit{}, nil
	}

	where, args := filter.where(`chunks_fts MATCH ?`, match)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+columns("c")+` FROM chunks_fts f JOIN chunks c ON c.id = f.id WHERE `+where+` ORDER BY f.rank LIMIT ?`,
		append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("index: keyword: %w", err)
	}
	defer rows.Close()
	return scanKeywordHits(rows)
}
