package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/docfind/internal/checksum"
	"github.com/starford/docfind/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func collect(ch <-chan models.Document) []models.Document {
	var docs []models.Document
	for d := range ch {
		docs = append(docs, d)
	}
	return docs
}

func TestPipeline_CorruptFileIsolation(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := range 10 {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("f%02d.txt", i), []byte(fmt.Sprintf("file number %d", i))))
	}
	// One input disappears between scan and extraction.
	require.NoError(t, os.Remove(paths[3]))

	p := NewPipeline(WithWorkers(4), WithLogger(quietLogger()))
	docs := collect(p.Run(context.Background(), paths))

	assert.Len(t, docs, 9)
	for _, d := range docs {
		assert.NotEqual(t, paths[3], d.Metadata.SourcePath)
	}
}

func TestPipeline_DegradesToFilename(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "broken.docx", []byte("not a zip"))

	doc, ok := NewPipeline(WithLogger(quietLogger())).Extract(p)
	require.True(t, ok)
	assert.Equal(t, "broken.docx", doc.Content)
	assert.Equal(t, ".docx", doc.Metadata.Type)
}

func TestPipeline_EmptyFileUsesFilename(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "blank.txt", []byte("  \n\t "))

	doc, ok := NewPipeline(WithLogger(quietLogger())).Extract(p)
	require.True(t, ok)
	assert.Equal(t, "blank.txt", doc.Content)
}

func TestPipeline_PanicDropsFile(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "boom.txt", []byte("x"))
	good := writeFile(t, dir, "ok.md", []byte("fine"))

	p := NewPipeline(
		WithLogger(quietLogger()),
		WithExtractor(".txt", func(string) (Extraction, error) { panic("corrupt") }),
	)
	docs := collect(p.Run(context.Background(), []string{bad, good}))

	require.Len(t, docs, 1)
	assert.Equal(t, good, docs[0].Metadata.SourcePath)
}

func TestPipeline_DocumentIdentity(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", []byte("  alpha\n\nbeta  "))
	info, err := os.Stat(p)
	require.NoError(t, err)

	doc, ok := NewPipeline(WithLogger(quietLogger())).Extract(p)
	require.True(t, ok)
	assert.Equal(t, checksum.DocumentID(p, info.ModTime()), doc.ID)
	assert.Equal(t, "alpha beta", doc.Content)
	assert.Equal(t, "a.txt", doc.Metadata.Filename)
	assert.Equal(t, info.Size(), doc.Metadata.SizeBytes)

	// A new mtime yields a new id.
	later := info.ModTime().Add(time.Minute)
	require.NoError(t, os.Chtimes(p, later, later))
	doc2, ok := NewPipeline(WithLogger(quietLogger())).Extract(p)
	require.True(t, ok)
	assert.NotEqual(t, doc.ID, doc2.ID)
}

func TestPipeline_CancelStopsWorkers(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := range 50 {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("f%02d.txt", i), []byte("x")))
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := NewPipeline(WithWorkers(2), WithLogger(quietLogger())).Run(ctx, paths)

	<-ch
	cancel()

	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not close its channel after cancel")
	}
}

func TestPipeline_CancelWithoutDraining(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := range 20 {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("f%02d.txt", i), []byte("x")))
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := NewPipeline(WithWorkers(4), WithLogger(quietLogger())).Run(ctx, paths)

	<-ch
	cancel()
	// Nobody reads while the workers wind down.
	time.Sleep(200 * time.Millisecond)

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "workers kept sending after cancel")
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not close its channel after cancel")
	}
}

func TestPipeline_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "folder.txt")
	require.NoError(t, os.Mkdir(sub, 0o755))

	_, ok := NewPipeline(WithLogger(quietLogger())).Extract(sub)
	assert.False(t, ok)
}
