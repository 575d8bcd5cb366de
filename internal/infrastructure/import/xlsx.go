package csvimport

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a named sheet does not exist in the workbook
var ErrSheetNotFound = errors.New("sheet not found")

// XLSXReader decodes spreadsheet workbooks into a Table
type XLSXReader struct {
	sheet   string
	maxRows int
}

// NewXLSXReader creates a reader for the given sheet. An empty name selects
// the first sheet of the workbook.
func NewXLSXReader(sheet string, maxRows int) *XLSXReader {
	return &XLSXReader{sheet: sheet, maxRows: maxRows}
}

// ReadTable opens the workbook and converts the selected sheet
func (x *XLSXReader) ReadTable(content []byte) (*Table, error) {
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingHeader
	}
	sheet := sheets[0]
	if x.sheet != "" {
		if !slices.Contains(sheets, x.sheet) {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, x.sheet)
		}
		sheet = x.sheet
	}

	// raw values keep prices free of display formatting
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	return x.toTable(rows)
}

// toTable converts excelize rows, where index i is physical row i+1, into a
// Table. excelize drops trailing empty cells, so short rows are padded to the
// header width; that is not a wrong cell count.
func (x *XLSXReader) toTable(rows [][]string) (*Table, error) {
	table := &Table{}
	headerAt := -1
	for i, cells := range rows {
		if !isBlank(cells) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrMissingHeader
	}

	table.HeaderRow = headerAt + 1
	table.Header = make([]string, len(rows[headerAt]))
	for i, h := range rows[headerAt] {
		table.Header[i] = trimCell(h)
	}
	width := len(table.Header)

	count := 0
	for i := headerAt + 1; i < len(rows); i++ {
		count++
		if x.maxRows > 0 && count > x.maxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrFileTooLarge, x.maxRows)
		}
		cells := make([]string, 0, width)
		for _, c := range rows[i] {
			cells = append(cells, trimCell(c))
		}
		for len(cells) > width && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		for len(cells) < width {
			cells = append(cells, "")
		}
		table.append(cells, i+1)
	}
	return table, nil
}
