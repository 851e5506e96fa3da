package extract

import (
	"io"
	"os"
	"strings"

	"github.com/starford/docfind/internal/apperr"
)

const (
	// binaryReadLimit bounds how much of an executable is read.
	binaryReadLimit = 2 << 20
	// minPrintableRun is the shortest ASCII run kept as a string.
	minPrintableRun = 4
	// maxBinaryText caps the joined strings.
	maxBinaryText = 5000
)

// ExtractBinary pulls printable ASCII strings out of the head of an
// executable. The file is only read, never loaded.
func ExtractBinary(path string) (Extraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindBinary, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, binaryReadLimit))
	if err != nil {
		return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindBinary, Err: err}
	}
	return Extraction{Text: printableStrings(data)}, nil
}

func printableStrings(data []byte) string {
	var b strings.Builder
	start := -1
	for i := 0; i <= len(data) && b.Len() < maxBinaryText; i++ {
		if i < len(data) && data[i] >= 0x20 && data[i] <= 0x7E {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= minPrintableRun {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.Write(data[start:i])
		}
		start = -1
	}
	s := b.String()
	if len(s) > maxBinaryText {
		s = s[:maxBinaryText]
	}
	return s
}
