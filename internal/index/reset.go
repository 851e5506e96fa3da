package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/starford/docfind/internal/apperr"
)

var errClosed = errors.New("index: store is not open")

// Reset removes every stored chunk. The store moves Live → Resetting → Live;
// other calls wait until it is back to Live.
//
// The primary strategy drops and recreates the schema in one transaction. If
// that fails, the fallback closes the connection, waits for file handles to
// be released, wipes the data directory and reopens a fresh store. Reopening
// is attempted even when the wipe fails; in that case a
// *apperr.StoreResetError is returned.
func (db *DB) Reset(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.state.Store(int32(StateResetting))
	defer db.state.Store(int32(StateLive))

	nativeErr := db.nativeReset(ctx)
	if nativeErr == nil {
		db.logger.Info("index: reset", slog.String("strategy", "native"))
		return nil
	}
	db.logger.Warn("index: native reset failed, wiping data directory",
		slog.String("error", nativeErr.Error()))

	if fallbackErr := db.hardReset(ctx); fallbackErr != nil {
		db.logger.Error("index: reset fallback failed", slog.String("error", fallbackErr.Error()))
		return &apperr.StoreResetError{Native: nativeErr, Fallback: fallbackErr}
	}
	db.logger.Info("index: reset", slog.String("strategy", "wipe"))
	return nil
}

// dropAndRecreate is the native reset. Caller holds db.mu.
func (db *DB) dropAndRecreate(ctx context.Context) error {
	if db.conn == nil {
		return errClosed
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := dropSchema(ctx, tx); err != nil {
		return err
	}
	if err := applySchema(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// hardReset is the fallback reset. Caller holds db.mu.
func (db *DB) hardReset(ctx context.Context) error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			db.logger.Warn("index: close before wipe", slog.String("error", err.Error()))
		}
		db.conn = nil
	}
	runtime.GC()
	if db.releaseWait > 0 {
		time.Sleep(db.releaseWait)
	}

	wipeErr := db.dir.Wipe()
	if wipeErr != nil {
		wipeErr = fmt.Errorf("index: wipe data directory: %w", wipeErr)
	}
	// Reopen regardless so the store stays usable; the caller's context may
	// already be cancelled.
	openErr := db.open(context.WithoutCancel(ctx))
	return errors.Join(wipeErr, openErr)
}
