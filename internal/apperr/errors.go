// Package apperr holds the error taxonomy shared by the indexing and search paths.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbeddingUnavailable is returned when the embedding provider is
	// unreachable or misconfigured. It aborts the current ingestion run.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	ErrStoreWrite = errors.New("store write failed")
	ErrStoreReset = errors.New("store reset failed")
)

// ScanError reports a scan root that cannot be walked.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ExtractionError reports a single file whose text could not be extracted.
// The pipeline recovers from it by indexing the file name only.
type ExtractionError struct {
	Path string
	Kind string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() []error { return []error{ErrExtraction, e.Err} }

// StoreWriteError reports a batch that could not be written to the store.
type StoreWriteError struct {
	Records int
	Err     error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("write batch of %d chunks: %v", e.Records, e.Err)
}

func (e *StoreWriteError) Unwrap() []error { return []error{ErrStoreWrite, e.Err} }

// StoreResetError reports a reset where both the native drop and the
// on-disk wipe failed.
type StoreResetError struct {
	Native   error
	Fallback error
}

func (e *StoreResetError) Error() string {
	return fmt.Sprintf("reset store: native: %v; fallback: %v", e.Native, e.Fallback)
}

func (e *StoreResetError) Unwrap() []error {
	return []error{ErrStoreReset, e.Native, e.Fallback}
}
