package index

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/docfind/internal/models"
	"github.com/starford/docfind/internal/storage"
)

// Store defines the vector store operations used by the indexing and search
// paths. Consumers should depend on this interface rather than *DB.
type Store interface {
	UpsertChunks(ctx context.Context, chunks []models.Chunk) error
	Query(ctx context.Context, vector []float32, candidateK int, filter Filter) ([]Hit, error)
	Keyword(ctx context.Context, query string, limit int, filter Filter) ([]Hit, error)
	Count(ctx context.Context) (int, error)
	CountDocuments(ctx context.Context) (int, error)
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
	DeleteDocument(ctx context.Context, docID string) (int64, error)
	DeleteBySource(ctx context.Context, sourcePath, keepDocID string) (int64, error)
	SourcePaths(ctx context.Context) ([]string, error)
	Reset(ctx context.Context) error
	Path() string
	Size() (int64, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// State is the lifecycle state of a DB.
type State int

const (
	// StateLive accepts reads and writes.
	StateLive State = iota
	// StateResetting is held while Reset runs; other calls wait for it.
	StateResetting
)

func (s State) String() string {
	if s == StateResetting {
		return "resetting"
	}
	return "live"
}

// DefaultReleaseWait is how long the reset fallback waits for file handles
// to be released before wiping the data directory.
const DefaultReleaseWait = time.Second

// DB is the SQLite vector store.
type DB struct {
	mu    sync.RWMutex
	conn  *sql.DB
	state atomic.Int32

	dir         storage.Provider
	logger      *slog.Logger
	pruneStale  bool
	releaseWait time.Duration

	// nativeReset is the primary reset strategy; replaced in tests.
	nativeReset func(ctx context.Context) error
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithPruneStale controls whether UpsertChunks deletes chunks that belong to
// an older version of the same source file.
func WithPruneStale(on bool) Option {
	return func(db *DB) { db.pruneStale = on }
}

// WithReleaseWait sets the pause before the reset fallback wipes the
// data directory.
func WithReleaseWait(d time.Duration) Option {
	return func(db *DB) {
		if d >= 0 {
			db.releaseWait = d
		}
	}
}

// Open opens (or creates) the store inside dir and applies the schema.
func Open(dir storage.Provider, opts ...Option) (*DB, error) {
	db := &DB{
		dir:         dir,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		pruneStale:  true,
		releaseWait: DefaultReleaseWait,
	}
	db.nativeReset = db.dropAndRecreate
	for _, o := range opts {
		o(db)
	}
	if err := db.open(context.Background()); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *DB) open(ctx context.Context) error {
	path, err := db.dir.File(dbFile)
	if err != nil {
		return fmt.Errorf("index: resolve db file: %w", err)
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("index: ping: %w", err)
	}
	if err := applySchema(ctx, conn); err != nil {
		conn.Close()
		return err
	}
	db.conn = conn
	return nil
}

// Path returns the data directory.
func (db *DB) Path() string { return db.dir.Path() }

// Size returns the bytes used by the data directory.
func (db *DB) Size() (int64, error) { return db.dir.Size() }

// State reports the current lifecycle state.
func (db *DB) State() State {
	return State(db.state.Load())
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}
