// Package extract turns files into cleaned, searchable text. Each supported
// file kind has its own Extractor; the Pipeline fans work out over a bounded
// worker pool and degrades failed extractions to filename-only documents.
package extract

import (
	"path/filepath"
	"sort"
	"strings"
)

// Extraction is the raw output of an Extractor, before cleaning.
type Extraction struct {
	Text string
	// Sheets lists workbook sheet names in order; nil for other kinds.
	Sheets []string
}

// Extractor reads one file. It must not panic and returns a
// *apperr.ExtractionError on failure.
type Extractor func(path string) (Extraction, error)

// Kinds of file the extractors understand.
const (
	KindText   = "text"
	KindPDF    = "pdf"
	KindDOCX   = "docx"
	KindSheet  = "sheet"
	KindBinary = "binary"
)

var defaultExtractors = map[string]Extractor{
	".txt":  ExtractText,
	".md":   ExtractText,
	".pdf":  ExtractPDF,
	".docx": ExtractDOCX,
	".xlsx": ExtractWorkbook,
	".xlsm": ExtractWorkbook,
	".xls":  ExtractLegacyWorkbook,
	".exe":  ExtractBinary,
	".dll":  ExtractBinary,
}

// SupportedExtensions returns the lower-cased extensions with a registered
// extractor, sorted.
func SupportedExtensions() []string {
	out := make([]string, 0, len(defaultExtractors))
	for ext := range defaultExtractors {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// extOf returns the lower-cased extension of path including the dot.
func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
