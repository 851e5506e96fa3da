package extract

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/starford/docfind/internal/apperr"
)

// SheetMarker prefixes the line that opens each sheet's text.
const SheetMarker = "Sheet: "

// sheetWriter accumulates the per-sheet text layout shared by both
// workbook formats.
type sheetWriter struct {
	b      strings.Builder
	sheets []string
}

func (w *sheetWriter) sheet(name string) {
	w.sheets = append(w.sheets, name)
	w.b.WriteString(SheetMarker)
	w.b.WriteString(name)
	w.b.WriteByte('\n')
}

// row writes the non-empty cells of a row, space-joined. Rows with no
// content are dropped.
func (w *sheetWriter) row(cells []string) {
	vals := cells[:0:0]
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			vals = append(vals, c)
		}
	}
	if len(vals) == 0 {
		return
	}
	w.b.WriteString(strings.Join(vals, " "))
	w.b.WriteByte('\n')
}

func (w *sheetWriter) extraction() Extraction {
	return Extraction{Text: w.b.String(), Sheets: w.sheets}
}

// ExtractWorkbook reads .xlsx and .xlsm files. Cells yield their formatted
// cached values, never formulas.
func ExtractWorkbook(path string) (ext Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext = Extraction{}
			err = &apperr.ExtractionError{Path: path, Kind: KindSheet, Err: fmt.Errorf("xlsx reader panic: %v", r)}
		}
	}()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindSheet, Err: err}
	}
	defer f.Close()

	var w sheetWriter
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindSheet, Err: fmt.Errorf("sheet %q: %w", name, err)}
		}
		w.sheet(name)
		for _, row := range rows {
			w.row(row)
		}
	}
	return w.extraction(), nil
}

// ExtractLegacyWorkbook reads BIFF .xls files.
func ExtractLegacyWorkbook(path string) (ext Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext = Extraction{}
			err = &apperr.ExtractionError{Path: path, Kind: KindSheet, Err: fmt.Errorf("xls reader panic: %v", r)}
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindSheet, Err: err}
	}
	defer f.Close()

	wb, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindSheet, Err: err}
	}
	if wb == nil {
		return Extraction{}, &apperr.ExtractionError{Path: path, Kind: KindSheet, Err: errors.New("no workbook stream")}
	}

	var w sheetWriter
	for i := range wb.NumSheets() {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		w.sheet(sheet.Name)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := legacyRow(sheet, r)
			if row == nil {
				continue
			}
			var cells []string
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			w.row(cells)
		}
	}
	return w.extraction(), nil
}

// legacyRow returns nil for row indexes the sheet never defined; the
// reader dereferences missing rows instead of reporting them.
func legacyRow(sheet *xls.WorkSheet, r int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(r)
}
