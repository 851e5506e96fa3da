package index

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/docfind/internal/apperr"
	"github.com/starford/docfind/internal/models"
)

// Hit is a stored chunk returned by a query, with its distance to the query
// vector. Lexical hits carry distance 1.
type Hit struct {
	Chunk    models.Chunk
	Distance float64
}

// Filter narrows a query by metadata. The zero value matches everything.
type Filter struct {
	// Type is a lower-cased file extension such as ".pdf".
	Type string
}

// where joins base with the filter's conditions.
func (f Filter) where(base string, args ...any) (string, []any) {
	if f.Type == "" {
		return base, args
	}
	return base + ` AND type = ?`, append(args, strings.ToLower(f.Type))
}

var chunkColumnNames = []string{
	"id", "doc_id", "chunk_index", "text", "vector", "source_path",
	"filename", "modified_time", "size_bytes", "type", "sheet_name",
}

// columns lists the chunk columns, qualified by alias when set.
func columns(alias string) string {
	if alias == "" {
		return strings.Join(chunkColumnNames, ", ")
	}
	qualified := make([]string, len(chunkColumnNames))
	for i, c := range chunkColumnNames {
		qualified[i] = alias + "." + c
	}
	return strings.Join(qualified, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(r rowScanner) (models.Chunk, []byte, error) {
	var (
		c    models.Chunk
		blob []byte
		mod  int64
	)
	err := r.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text, &blob, &c.Metadata.SourcePath,
		&c.Metadata.Filename, &mod, &c.Metadata.SizeBytes, &c.Metadata.Type, &c.SheetName)
	if err != nil {
		return models.Chunk{}, nil, err
	}
	c.Metadata.ModifiedTime = time.Unix(0, mod)
	return c, blob, nil
}

func scanKeywordHits(rows *sql.Rows) ([]Hit, error) {
	out := []Hit{}
	for rows.Next() {
		c, _, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("index: scan chunk: %w", err)
		}
		out = append(out, Hit{Chunk: c, Distance: 1})
	}
	return out, rows.Err()
}

// escapeLike escapes LIKE wildcards using backslash.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// UpsertChunks writes chunks in a single transaction, replacing rows with the
// same id. With stale pruning on, chunks of the same source file stored
// under a different document id are deleted in the same transaction.
func (db *DB) UpsertChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.upsert(ctx, chunks); err != nil {
		return &apperr.StoreWriteError{Records: len(chunks), Err: err}
	}
	return nil
}

func (db *DB) upsert(ctx context.Context, chunks []models.Chunk) error {
	if db.conn == nil {
		return errClosed
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if db.pruneStale {
		seen := make(map[string]string)
		for _, c := range chunks {
			if c.Metadata.SourcePath != "" {
				seen[c.Metadata.SourcePath] = c.DocumentID
			}
		}
		for path, docID := range seen {
			if _, err := deleteWhere(ctx, tx, `source_path = ? AND doc_id <> ?`, path, docID); err != nil {
				return err
			}
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+columns("")+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc_id        = excluded.doc_id,
			chunk_index   = excluded.chunk_index,
			text          = excluded.text,
			vector        = excluded.vector,
			source_path   = excluded.source_path,
			filename      = excluded.filename,
			modified_time = excluded.modified_time,
			size_bytes    = excluded.size_bytes,
			type          = excluded.type,
			sheet_name    = excluded.sheet_name
	`)
	if err != nil {
		return fmt.Errorf("index: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		_, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Index, c.Text, encodeVector(c.Vector),
			c.Metadata.SourcePath, c.Metadata.Filename, c.Metadata.ModifiedTime.UnixNano(),
			c.Metadata.SizeBytes, strings.ToLower(c.Metadata.Type), c.SheetName)
		if err != nil {
			return fmt.Errorf("index: upsert chunk %s: %w", c.ID, err)
		}
		if err := ftsUpsert(ctx, tx, c.ID, c.Metadata.Filename, c.Text); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// deleteWhere removes the chunks matched by where, including their FTS rows.
func deleteWhere(ctx context.Context, ex execer, where string, args ...any) (int64, error) {
	if err := ftsDeleteWhere(ctx, ex, where, args...); err != nil {
		return 0, err
	}
	res, err := ex.ExecContext(ctx, `DELETE FROM chunks WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("index: delete chunks: %w", err)
	}
	return res.RowsAffected()
}

// Query returns up to candidateK chunks nearest to vector by cosine
// distance, ascending, ties broken by chunk id. Stored vectors whose length
// differs from the query are ignored. An empty or closed store yields an
// empty slice.
func (db *DB) Query(ctx context.Context, vector []float32, candidateK int, filter Filter) ([]Hit, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	hits := []Hit{}
	if db.conn == nil || candidateK <= 0 || len(vector) == 0 {
		return hits, nil
	}

	where, args := filter.where(`vector IS NOT NULL`)
	rows, err := db.conn.QueryContext(ctx, `SELECT `+columns("")+` FROM chunks WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, blob, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("index: scan chunk: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil || len(vec) != len(vector) {
			continue
		}
		hits = append(hits, Hit{Chunk: c, Distance: cosineDistance(vector, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index: query: %w", err)
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return strings.Compare(a.Chunk.ID, b.Chunk.ID)
	})
	if len(hits) > candidateK {
		hits = hits[:candidateK]
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (db *DB) Count(ctx context.Context) (int, error) {
	return db.countQuery(ctx, `SELECT count(*) FROM chunks`)
}

// CountDocuments returns the number of distinct documents.
func (db *DB) CountDocuments(ctx context.Context) (int, error) {
	return db.countQuery(ctx, `SELECT count(DISTINCT doc_id) FROM chunks`)
}

func (db *DB) countQuery(ctx context.Context, q string) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.conn == nil {
		return 0, nil
	}
	var n int
	if err := db.conn.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// KnownIDs returns the set of document ids present in the store, derived
// from the stored chunk ids.
func (db *DB) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make(map[string]struct{})
	if db.conn == nil {
		return out, nil
	}
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("index: known ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("index: known ids: %w", err)
		}
		out[models.BaseID(id)] = struct{}{}
	}
	return out, rows.Err()
}

// DeleteDocument removes every chunk of docID and returns how many were
// removed.
func (db *DB) DeleteDocument(ctx context.Context, docID string) (int64, error) {
	return db.deleteTx(ctx, `doc_id = ?`, docID)
}

// DeleteBySource removes chunks stored for sourcePath, except those of
// keepDocID. An empty keepDocID removes all of them.
func (db *DB) DeleteBySource(ctx context.Context, sourcePath, keepDocID string) (int64, error) {
	return db.deleteTx(ctx, `source_path = ? AND doc_id <> ?`, sourcePath, keepDocID)
}

func (db *DB) deleteTx(ctx context.Context, where string, args ...any) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn == nil {
		return 0, errClosed
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	n, err := deleteWhere(ctx, tx, where, args...)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("index: commit delete: %w", err)
	}
	return n, nil
}

// SourcePaths returns every distinct source path in the store, sorted.
func (db *DB) SourcePaths(ctx context.Context) ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.conn == nil {
		return nil, nil
	}
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT source_path FROM chunks ORDER BY source_path`)
	if err != nil {
		return nil, fmt.Errorf("index: source paths: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("index: source paths: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
