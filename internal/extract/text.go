package extract

import (
	"bytes"
	"errors"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/starford/docfind/internal/apperr"
	"github.com/starford/docfind/internal/parser"
)

var errUndecodable = errors.New("no encoding matched")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textDecoders are tried in order; the first that succeeds wins.
var textDecoders = []func([]byte) (string, bool){
	decodeUTF8,
	decodeUTF16,
	decodeWith(charmap.ISO8859_1),
	decodeWith(charmap.Windows1252),
}

// ExtractText reads a plain-text or Markdown file. Markdown frontmatter is
// folded into a title and tag prefix.
func ExtractText(path string) (Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindText, Err: err}
	}
	text, err := decodeText(data)
	if err != nil {
		return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindText, Err: err}
	}
	if extOf(path) == ".md" {
		text = parser.Parse([]byte(text)).Text()
	}
	return Extraction{Text: text}, nil
}

func decodeText(data []byte) (string, error) {
	for _, decode := range textDecoders {
		if s, ok := decode(data); ok {
			return s, nil
		}
	}
	return "", errUndecodable
}

func decodeUTF8(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), true
}

// decodeUTF16 only accepts input carrying a byte order mark; without one any
// even-length byte string would decode.
func decodeUTF16(data []byte) (string, bool) {
	if len(data) < 2 || len(data)%2 != 0 {
		return "", false
	}
	if !(data[0] == 0xFF && data[1] == 0xFE) && !(data[0] == 0xFE && data[1] == 0xFF) {
		return "", false
	}
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func decodeWith(enc encoding.Encoding) func([]byte) (string, bool) {
	return func(data []byte) (string, bool) {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		return string(out), true
	}
}
