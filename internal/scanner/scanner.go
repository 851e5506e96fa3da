// Package scanner walks a directory tree for supported files and splits them
// into files that need indexing and files already present in the index.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/docfind/internal/apperr"
)

// Scanner walks directory trees according to an injected SkipPolicy.
type Scanner struct {
	policy     compiled
	extensions map[string]struct{}
}

// New creates a Scanner. extensions are matched against lower-cased file
// extensions including the leading dot.
func New(policy SkipPolicy, extensions []string) *Scanner {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &Scanner{policy: policy.compile(), extensions: exts}
}

// Supported reports whether path has a supported extension.
func (s *Scanner) Supported(path string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SkipDir reports whether a directory would be pruned during a scan.
func (s *Scanner) SkipDir(path string) bool {
	return s.policy.skip(path)
}

// Scan returns the absolute paths of every supported file under root.
// Unreadable subdirectories are skipped; a missing root fails with a
// *apperr.ScanError wrapping apperr.ErrNotFound.
func (s *Scanner) Scan(root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &apperr.ScanError{Root: root, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &apperr.ScanError{Root: root, Err: fmt.Errorf("%w: %s", apperr.ErrNotFound, abs)}
		}
		return nil, &apperr.ScanError{Root: root, Err: err}
	}
	if !info.IsDir() {
		if s.Supported(abs) {
			return []string{abs}, nil
		}
		return nil, nil
	}

	var out []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == abs {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != abs && s.policy.skip(p) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && s.Supported(p) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, &apperr.ScanError{Root: root, Err: err}
	}
	return out, nil
}
