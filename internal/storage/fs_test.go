package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempDataDir(t *testing.T) *FS {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	fs, err := NewFS(dir, WithRetry(1, time.Millisecond))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestNewFSCreatesDir(t *testing.T) {
	s := tempDataDir(t)
	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("data dir is not a directory")
	}
}

func TestNewFSRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	_ = os.WriteFile(f, []byte("x"), 0o644)
	if _, err := NewFS(f); err == nil {
		t.Error("expected error for non-directory root")
	}
}

func TestFileResolves(t *testing.T) {
	s := tempDataDir(t)
	p, err := s.File("chunks.db")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if p != filepath.Join(s.Path(), "chunks.db") {
		t.Errorf("path = %q", p)
	}
}

func TestFileTraversalRejected(t *testing.T) {
	s := tempDataDir(t)
	if _, err := s.File("../../etc/passwd"); err == nil {
		t.Error("expected error for directory traversal")
	}
	if _, err := s.File("/etc/passwd"); err == nil {
		t.Error("expected error for absolute path")
	}
	if _, err := s.File(""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestWipeRemovesContents(t *testing.T) {
	s := tempDataDir(t)
	_ = os.WriteFile(filepath.Join(s.Path(), "chunks.db"), []byte("data"), 0o644)
	_ = os.MkdirAll(filepath.Join(s.Path(), "sub"), 0o755)
	_ = os.WriteFile(filepath.Join(s.Path(), "sub", "x"), []byte("x"), 0o644)

	if err := s.Wipe(); err != nil {
		t.Fatalf("Wipe: %v", err)
	}
	entries, err := os.ReadDir(s.Path())
	if err != nil {
		t.Fatalf("data dir should exist after wipe: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty dir, got %d entries", len(entries))
	}
}

func TestSize(t *testing.T) {
	s := tempDataDir(t)
	_ = os.WriteFile(filepath.Join(s.Path(), "a"), []byte("12345"), 0o644)
	_ = os.WriteFile(filepath.Join(s.Path(), "b"), []byte("123"), 0o644)
	n, err := s.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if n != 8 {
		t.Errorf("size = %d, want 8", n)
	}
}
