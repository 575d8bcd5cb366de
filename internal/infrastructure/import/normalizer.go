package csvimport

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
)

// ColumnMapping records where a source column ended up
type ColumnMapping struct {
	Position int    `json:"position"`
	Header   string `json:"header"`
	Field    string `json:"field"`
	Mapped   bool   `json:"mapped"`
}

// NormalizeResult is the output of Normalize
type NormalizeResult struct {
	Rows      []verification.RawRow
	Columns   []ColumnMapping
	Dropped   int
	Malformed int
}

// Normalizer maps a decoded Table onto canonical rows
type Normalizer struct {
	schema *Schema
}

// NewNormalizer creates a normalizer. A nil schema selects DefaultSchema.
func NewNormalizer(schema *Schema) *Normalizer {
	if schema == nil {
		schema = DefaultSchema()
	}
	return &Normalizer{schema: schema}
}

// Normalize maps headers, drops empty rows and marks rows whose cell count
// differs from the header. It fails with a schema error when no column maps
// to the product identifier.
func (n *Normalizer) Normalize(table *Table) (*NormalizeResult, error) {
	if table == nil || len(table.Header) == 0 {
		return nil, shared.NewSchemaError(nil)
	}

	columns := n.mapColumns(table.Header)
	hasID := false
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Field
		if c.Mapped && c.Field == verification.FieldID {
			hasID = true
		}
	}
	if !hasID {
		return nil, shared.NewSchemaError(table.Header)
	}

	result := &NormalizeResult{Columns: columns, Rows: make([]verification.RawRow, 0, len(table.Rows))}
	for i, cells := range table.Rows {
		if isBlank(cells) {
			result.Dropped++
			continue
		}

		rowNames := names
		if len(cells) > len(names) {
			rowNames = overflowNames(names, len(cells))
		}
		values := make(map[string]string, len(rowNames)+1)
		for j, name := range rowNames {
			if j < len(cells) {
				values[name] = cells[j]
			}
		}
		if len(cells) != len(names) {
			values[verification.FieldMalformed] = strconv.FormatBool(true)
			result.Malformed++
		}
		result.Rows = append(result.Rows, verification.NewRawRow(table.RowNumber(i), rowNames, values))
	}
	return result, nil
}

// overflowNames extends the header names to width. Cells past the header
// are kept as column_<position>.
func overflowNames(names []string, width int) []string {
	out := slices.Clone(names)
	for pos := len(names) + 1; pos <= width; pos++ {
		name := fmt.Sprintf("column_%d", pos)
		for slices.Contains(out, name) {
			name += "_extra"
		}
		out = append(out, name)
	}
	return out
}

func (n *Normalizer) mapColumns(header []string) []ColumnMapping {
	used := make(map[string]bool, len(header))
	columns := make([]ColumnMapping, len(header))
	for i, h := range header {
		h = trimCell(h)
		col := ColumnMapping{Position: i + 1, Header: h}

		if field, ok := n.schema.Match(h); ok && h != "" && !used[field] {
			col.Field = field
			col.Mapped = true
		} else {
			col.Field = h
			if col.Field == "" {
				col.Field = fmt.Sprintf("column_%d", i+1)
			}
			if used[col.Field] || col.Field == verification.FieldMalformed {
				col.Field = fmt.Sprintf("%s_%d", col.Field, i+1)
			}
		}
		used[col.Field] = true
		columns[i] = col
	}
	return columns
}

// Normalize maps a table with the default schema
func Normalize(table *Table) (*NormalizeResult, error) {
	return NewNormalizer(nil).Normalize(table)
}
