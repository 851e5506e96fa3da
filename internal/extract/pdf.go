package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/starford/docfind/internal/apperr"
)

// ExtractPDF extracts plain text page by page, one line per page. Pages that
// fail to decode are skipped.
func ExtractPDF(path string) (ext Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext = Extraction{}
			err = &apperr.ExtractionError{Path: path, Kind: KindPDF, Err: fmt.Errorf("pdf reader panic: %v", r)}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindPDF, Err: err}
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return Extraction{Text: b.String()}, nil
}
