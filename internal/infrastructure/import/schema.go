package csvimport

import (
	"strings"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// FieldSpec names a canonical field and the header spellings that map to it
type FieldSpec struct {
	Name    string
	Aliases []string
}

// Schema maps source headers onto canonical field names
type Schema struct {
	specs  []FieldSpec
	lookup map[string]string
}

// NewSchema builds a schema. Earlier specs win when two claim the same alias.
func NewSchema(specs ...FieldSpec) *Schema {
	s := &Schema{specs: specs, lookup: make(map[string]string)}
	for _, spec := range specs {
		for _, name := range append([]string{spec.Name}, spec.Aliases...) {
			key := HeaderKey(name)
			if _, taken := s.lookup[key]; !taken {
				s.lookup[key] = spec.Name
			}
		}
	}
	return s
}

// DefaultSchema returns the product catalog schema
func DefaultSchema() *Schema {
	return NewSchema(
		FieldSpec{Name: verification.FieldID, Aliases: []string{"sku", "product id", "product code", "item code", "code", "identifier"}},
		FieldSpec{Name: verification.FieldName, Aliases: []string{"product name", "product", "item", "item name", "title"}},
		FieldSpec{Name: verification.FieldCategory, Aliases: []string{"product category", "type", "group"}},
		FieldSpec{Name: verification.FieldPrice, Aliases: []string{"unit price", "unit cost", "cost", "list price"}},
		FieldSpec{Name: verification.FieldCurrency, Aliases: []string{"ccy", "currency code"}},
		FieldSpec{Name: verification.FieldUnit, Aliases: []string{"uom", "unit of measure"}},
		FieldSpec{Name: verification.FieldDescription, Aliases: []string{"details", "notes"}},
	)
}

// Match returns the canonical field for a header
func (s *Schema) Match(header string) (string, bool) {
	field, ok := s.lookup[HeaderKey(header)]
	return field, ok
}

// Fields returns the canonical field names in schema order
func (s *Schema) Fields() []string {
	out := make([]string, 0, len(s.specs))
	for _, spec := range s.specs {
		out = append(out, spec.Name)
	}
	return out
}

// HeaderKey folds a header for comparison: NFKC, Unicode case folding,
// '_' and '-' read as spaces, inner whitespace collapsed.
func HeaderKey(header string) string {
	h := norm.NFKC.String(header)
	h = cases.Fold().String(h)
	h = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, h)
	return strings.Join(strings.Fields(h), " ")
}
