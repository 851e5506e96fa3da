package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/docfind/internal/apperr"
)

var testExtensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx", ".xls", ".exe"}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	sort.Strings(out)
	return out
}

func TestScan_FiltersExtensionsAndSkipsDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, "B.PDF"), "b")
	writeFile(t, filepath.Join(root, "image.png"), "png")
	writeFile(t, filepath.Join(root, "sub", "c.docx"), "c")
	writeFile(t, filepath.Join(root, ".git", "config.txt"), "hidden")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "readme.txt"), "dep")
	writeFile(t, filepath.Join(root, "Venv", "lib.txt"), "venv")

	s := New(DefaultSkipPolicy(), testExtensions)
	paths, err := s.Scan(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"B.PDF", "a.txt", "sub/c.docx"}, rel(t, root, paths))
	for _, p := range paths {
		assert.True(t, filepath.IsAbs(p), "path %q should be absolute", p)
	}
}

func TestScan_SystemPrefix(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep", "a.txt"), "a")
	writeFile(t, filepath.Join(root, "System", "b.txt"), "b")

	policy := SkipPolicy{SystemPrefixes: []string{filepath.Join(root, "system")}}
	s := New(policy, testExtensions)
	paths, err := s.Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep/a.txt"}, rel(t, root, paths))
}

func TestScan_MissingRoot(t *testing.T) {
	s := New(DefaultSkipPolicy(), testExtensions)
	_, err := s.Scan(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	var scanErr *apperr.ScanError
	assert.True(t, errors.As(err, &scanErr))
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestScan_SingleFileRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "only.txt")
	writeFile(t, file, "x")

	s := New(DefaultSkipPolicy(), testExtensions)
	paths, err := s.Scan(file)
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths)
}

func TestSkipDir(t *testing.T) {
	s := New(DefaultSkipPolicy(), testExtensions)
	assert.True(t, s.SkipDir("/home/u/.cache"))
	assert.True(t, s.SkipDir("/home/u/__pycache__"))
	assert.True(t, s.SkipDir(`C:\Windows\System32`))
	assert.False(t, s.SkipDir("/home/u/documents"))
}

func TestClassify(t *testing.T) {
	root := t.TempDir()
	seen := filepath.Join(root, "seen.txt")
	fresh := filepath.Join(root, "fresh.txt")
	missing := filepath.Join(root, "missing.txt")
	writeFile(t, seen, "old")
	writeFile(t, fresh, "new")

	known := map[string]struct{}{}
	first := Classify([]string{seen}, known)
	require.Equal(t, []string{seen}, first.Process)

	info, err := os.Stat(seen)
	require.NoError(t, err)
	known[docID(seen, info)] = struct{}{}

	c := Classify([]string{seen, fresh, missing}, known)
	assert.Equal(t, []string{seen}, c.Skip)
	assert.Equal(t, []string{fresh, missing}, c.Process)
}
