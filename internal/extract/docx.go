package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/starford/docfind/internal/apperr"
)

const docxBody = "word/document.xml"

var errNoDocumentXML = errors.New("missing " + docxBody)

// ExtractDOCX reads word/document.xml and emits paragraph and table-cell text
// in document order, one paragraph per line.
func ExtractDOCX(path string) (Extraction, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindDOCX, Err: err}
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindDOCX, Err: err}
		}
		text, err := parseDocumentXML(rc)
		rc.Close()
		if err != nil {
			return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindDOCX, Err: err}
		}
		return Extraction{Text: text}, nil
	}
	return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindDOCX, Err: errNoDocumentXML}
}

// parseDocumentXML streams the WordprocessingML body. Table cells hold their
// own paragraphs, so walking tokens in order covers both paragraphs and
// tables, including nested ones.
func parseDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			case "tc":
				b.WriteByte(' ')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
