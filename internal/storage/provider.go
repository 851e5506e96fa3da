// Package storage owns the on-disk data directory that holds the vector store.
package storage

// Provider is the interface for data directory operations.
type Provider interface {
	// Path returns the absolute path of the data directory.
	Path() string
	// File resolves name (relative to the data directory) to an absolute path.
	File(name string) (string, error)
	// Wipe deletes everything under the data directory and recreates it empty.
	Wipe() error
	// Size returns the total size in bytes of regular files under the directory.
	Size() (int64, error)
}
