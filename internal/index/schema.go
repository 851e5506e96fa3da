// Package index is the SQLite-backed vector store. Chunks are stored with
// their embedding and a copy of the source file's metadata; similarity is
// computed by brute-force cosine over the stored vectors.
package index

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// dbFile is the database file name inside the data directory.
const dbFile = "chunks.db"

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS chunks (
	id            TEXT PRIMARY KEY,
	doc_id        TEXT NOT NULL,
	chunk_index   INTEGER NOT NULL,
	text          TEXT NOT NULL DEFAULT '',
	vector        BLOB,
	source_path   TEXT NOT NULL DEFAULT '',
	filename      TEXT NOT NULL DEFAULT '',
	modified_time INTEGER NOT NULL DEFAULT 0,
	size_bytes    INTEGER NOT NULL DEFAULT 0,
	type          TEXT NOT NULL DEFAULT '',
	sheet_name    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_path);
CREATE INDEX IF NOT EXISTS idx_chunks_type ON chunks(type);
`

const dropSchemaSQL = `DROP TABLE IF EXISTS chunks;`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func applySchema(ctx context.Context, ex execer) error {
	if _, err := ex.ExecContext(ctx, coreSchemaSQL); err != nil {
		return fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(ctx, ex); err != nil {
		return fmt.Errorf("index: apply fts schema: %w", err)
	}
	return nil
}

func dropSchema(ctx context.Context, ex execer) error {
	if err := dropFTS(ctx, ex); err != nil {
		return fmt.Errorf("index: drop fts schema: %w", err)
	}
	if _, err := ex.ExecContext(ctx, dropSchemaSQL); err != nil {
		return fmt.Errorf("index: drop core schema: %w", err)
	}
	return nil
}
