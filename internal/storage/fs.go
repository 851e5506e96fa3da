package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root    string // absolute path to the data directory
	retries int
	backoff time.Duration
}

// Option configures an FS.
type Option func(*FS)

// WithRetry sets how many times Wipe retries a failed removal and the pause
// between attempts. Open handles on some platforms are released lazily.
func WithRetry(retries int, backoff time.Duration) Option {
	return func(f *FS) {
		if retries >= 0 {
			f.retries = retries
		}
		if backoff >= 0 {
			f.backoff = backoff
		}
	}
}

// NewFS creates a new FS provider rooted at the given directory, creating it
// if needed.
func NewFS(root string, opts ...Option) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	f := &FS{root: abs, retries: 3, backoff: 250 * time.Millisecond}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Path returns the absolute data directory.
func (f *FS) Path() string { return f.root }

// File resolves a relative name against the data directory and rejects any
// result that escapes it (directory traversal).
func (f *FS) File(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: empty file name")
	}
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", name)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes data dir: %s", name)
	}
	return abs, nil
}

// Wipe removes the whole data directory and recreates it empty. Removal is
// retried because a just-closed database may still hold OS handles.
func (f *FS) Wipe() error {
	var err error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(f.backoff)
		}
		if err = os.RemoveAll(f.root); err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("storage: remove %s: %w", f.root, err)
	}
	if err := os.MkdirAll(f.root, 0o755); err != nil {
		return fmt.Errorf("storage: recreate %s: %w", f.root, err)
	}
	return nil
}

// Size sums the sizes of regular files under the data directory.
func (f *FS) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(f.root, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("storage: size: %w", err)
	}
	return total, nil
}
