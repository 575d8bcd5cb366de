package csvimport

import (
	"strings"
	"unicode"
)

// Table is a decoded cell matrix. Header is the first non-blank row of the
// source; Rows holds every following row and RowNumbers the 1-based physical
// row each one came from.
type Table struct {
	Header     []string
	HeaderRow  int
	Rows       [][]string
	RowNumbers []int
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// RowNumber returns the physical row number of data row i
func (t *Table) RowNumber(i int) int {
	if i < len(t.RowNumbers) {
		return t.RowNumbers[i]
	}
	return t.HeaderRow + i + 1
}

func (t *Table) append(cells []string, rowNumber int) {
	t.Rows = append(t.Rows, cells)
	t.RowNumbers = append(t.RowNumbers, rowNumber)
}

// isBlank reports whether every cell is empty after trimming
func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// trimCell strips surrounding whitespace, non-breaking spaces included
func trimCell(s string) string {
	return strings.TrimFunc(s, unicode.IsSpace)
}
