// Package models defines the domain types for docfind.
package models

import (
	"strconv"
	"strings"
	"time"
)

// chunkSep joins a document id and a chunk index into a chunk id.
const chunkSep = "_chunk_"

// Metadata describes the source file of a Document.
type Metadata struct {
	SourcePath   string    `json:"source_path"`
	Filename     string    `json:"filename"`
	ModifiedTime time.Time `json:"modified_time"`
	SizeBytes    int64     `json:"size_bytes"`
	Type         string    `json:"type"` // lower-cased extension, e.g. ".pdf"
}

// Document is one source file's extracted payload.
type Document struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	// Sheets lists workbook sheet names in order; empty for other kinds.
	Sheets []string `json:"sheets,omitempty"`
}

// Chunk is the unit stored in the vector store.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"-"`
	Metadata   Metadata  `json:"metadata"`
	SheetName  string    `json:"sheet_name,omitempty"`
}

// SearchResult is one ranked hit returned to callers.
type SearchResult struct {
	ChunkID    string   `json:"chunk_id"`
	Score      float64  `json:"score"`
	Distance   float64  `json:"distance"`
	Text       string   `json:"text"`
	ChunkIndex int      `json:"chunk_index"`
	SheetName  string   `json:"sheet_name,omitempty"`
	Metadata   Metadata `json:"metadata"`
}

// ChunkID returns the store id of the index-th chunk of document docID.
func ChunkID(docID string, index int) string {
	return docID + chunkSep + strconv.Itoa(index)
}

// BaseID strips the chunk suffix from a chunk id. Ids without a suffix are
// returned unchanged.
func BaseID(chunkID string) string {
	if i := strings.LastIndex(chunkID, chunkSep); i >= 0 {
		return chunkID[:i]
	}
	return chunkID
}
