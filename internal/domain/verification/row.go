package verification

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// Canonical field names the normalizer maps headers onto
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldCategory    = "category"
	FieldPrice       = "price"
	FieldCurrency    = "currency"
	FieldUnit        = "unit"
	FieldDescription = "description"

	// FieldMalformed marks a row whose cell count did not match the header
	FieldMalformed = "malformed"
)

// RawRow is one normalized input row. It is immutable once built; all accessors
// return copies.
type RawRow struct {
	index   int
	columns []string
	values  map[string]string
}

// NewRawRow builds a row from its 1-based source index, its column order and values.
// Columns missing from values are stored as empty strings.
func NewRawRow(index int, columns []string, values map[string]string) RawRow {
	cols := slices.Clone(columns)
	vals := make(map[string]string, len(cols))
	for _, c := range cols {
		vals[c] = values[c]
	}
	var extra []string
	for k := range values {
		if _, ok := vals[k]; !ok {
			extra = append(extra, k)
		}
	}
	// keys not named in columns go last, sorted
	slices.Sort(extra)
	for _, k := range extra {
		cols = append(cols, k)
		vals[k] = values[k]
	}
	return RawRow{index: index, columns: cols, values: vals}
}

// Index returns the 1-based source row index
func (r RawRow) Index() int {
	return r.index
}

// Columns returns the column names in source order
func (r RawRow) Columns() []string {
	return slices.Clone(r.columns)
}

// Value returns a column value and whether the column exists
func (r RawRow) Value(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Get returns a column value or "" when absent
func (r RawRow) Get(column string) string {
	return r.values[column]
}

// Values returns a copy of all column values
func (r RawRow) Values() map[string]string {
	return maps.Clone(r.values)
}

// IsMalformed reports whether the normalizer marked this row
func (r RawRow) IsMalformed() bool {
	return strings.EqualFold(r.values[FieldMalformed], "true")
}

// IsEmpty reports whether every cell is blank
func (r RawRow) IsEmpty() bool {
	for _, v := range r.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type rawRowJSON struct {
	Index   int               `json:"index"`
	Columns []string          `json:"columns"`
	Values  map[string]string `json:"values"`
}

// MarshalJSON implements json.Marshaler
func (r RawRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(rawRowJSON{Index: r.index, Columns: r.columns, Values: r.values})
}

// UnmarshalJSON implements json.Unmarshaler
func (r *RawRow) UnmarshalJSON(data []byte) error {
	var v rawRowJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = NewRawRow(v.Index, v.Columns, v.Values)
	return nil
}
