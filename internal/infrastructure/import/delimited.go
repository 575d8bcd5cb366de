package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DelimitedReader decodes comma, semicolon or tab separated text. Rows may
// carry any number of cells; the normalizer checks the count.
type DelimitedReader struct {
	Comma        rune
	StrictQuotes bool
	MaxRows      int // zero means no limit
}

// ReadTable takes the first non-blank record as the header and every later
// record as a data row, keeping the physical line each one starts on
func (r DelimitedReader) ReadTable(content []byte) (*Table, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(bytes.NewReader(content))
	cr.Comma = r.Comma
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	cr.LazyQuotes = !r.StrictQuotes
	cr.TrimLeadingSpace = !unicode.IsSpace(cr.Comma)
	cr.FieldsPerRecord = -1

	var table *Table
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, NewRowError(perr.StartLine, "", ErrCodeImportCSVParsing, perr.Err.Error())
			}
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)
		for i := range record {
			record[i] = trimCell(record[i])
		}

		if table == nil {
			if !isBlank(record) {
				table = &Table{Header: record, HeaderRow: line}
			}
			continue
		}
		if r.MaxRows > 0 && table.Len() == r.MaxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrFileTooLarge, r.MaxRows)
		}
		table.append(record, line)
	}

	if table == nil {
		return nil, ErrMissingHeader
	}
	return table, nil
}
