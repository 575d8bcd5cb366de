package persistence

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortSpec whitelists the columns a list endpoint may order by. Keys are the
// names accepted from callers; values are the column they map to.
type sortSpec struct {
	columns       map[string]string
	defaultColumn string
	defaultDesc   bool
}

var (
	catalogEntrySort = sortSpec{
		columns: map[string]string{
			"key":              "entry_key",
			"entry_key":        "entry_key",
			"approval_state":   "approval_state",
			"version":          "version",
			"source_row_index": "source_row_index",
			"created_at":       "created_at",
			"updated_at":       "updated_at",
		},
		defaultColumn: "entry_key",
	}
	uploadBatchSort = sortSpec{
		columns: map[string]string{
			"file_name":  "file_name",
			"status":     "status",
			"total_rows": "total_rows",
			"created_at": "created_at",
			"updated_at": "updated_at",
		},
		defaultColumn: "created_at",
		defaultDesc:   true,
	}
	proposalSort = sortSpec{
		columns: map[string]string{
			"client_ref": "client_ref",
			"title":      "title",
			"subtotal":   "subtotal",
			"total":      "total",
			"created_at": "created_at",
		},
		defaultColumn: "created_at",
		defaultDesc:   true,
	}
)

// order resolves a caller's ordering. Unknown columns fall back to the
// default column and anything but asc/desc to the default direction, so
// caller input never reaches the SQL text.
func (s sortSpec) order(orderBy, orderDir string) clause.OrderByColumn {
	column, ok := s.columns[strings.TrimSpace(orderBy)]
	if !ok {
		column = s.defaultColumn
	}
	desc := s.defaultDesc
	switch strings.ToLower(strings.TrimSpace(orderDir)) {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}
	return clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}
}

// paginate applies a 1-based page; a non-positive page or size returns
// every row
func paginate(query *gorm.DB, page, size int) *gorm.DB {
	if page <= 0 || size <= 0 {
		return query
	}
	return query.Offset((page - 1) * size).Limit(size)
}
