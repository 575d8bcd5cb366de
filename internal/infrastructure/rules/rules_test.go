package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func row(index int, kv ...string) verification.RawRow {
	cols := make([]string, 0, len(kv)/2)
	vals := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		cols = append(cols, kv[i])
		vals[kv[i]] = kv[i+1]
	}
	return verification.NewRawRow(index, cols, vals)
}

func defaultEngine(t *testing.T) *verification.Engine {
	t.Helper()
	engine, err := Default().Engine()
	require.NoError(t, err)
	return engine
}

func TestDefault_Scenarios(t *testing.T) {
	engine := defaultEngine(t)
	assert.Empty(t, engine.Warnings())
	assert.Equal(t, []string{"priceValid"}, engine.MandatoryTags())

	t.Run("positive price is verified", func(t *testing.T) {
		v := engine.Evaluate(row(2, "id", "SKU1", "price", "10.00"))
		assert.Equal(t, verification.StatusVerified, v.Status)
		assert.Equal(t, []string{"priceValid"}, v.Tags)
		assert.Empty(t, v.RejectionReasons)
	})

	t.Run("negative price is rejected", func(t *testing.T) {
		v := engine.Evaluate(row(3, "id", "SKU2", "price", "-5"))
		assert.Equal(t, verification.StatusRejected, v.Status)
		assert.Equal(t, []string{"price must be positive"}, v.RejectionReasons)
	})
}

func TestDefault_Rows(t *testing.T) {
	engine := defaultEngine(t)

	tests := []struct {
		name    string
		row     verification.RawRow
		status  verification.Status
		reasons []string
		fields  map[string]string
	}{
		{
			name:    "zero price",
			row:     row(2, "id", "A", "price", "0"),
			status:  verification.StatusRejected,
			reasons: []string{"price must be positive"},
		},
		{
			name:    "non numeric price",
			row:     row(2, "id", "A", "price", "call us"),
			status:  verification.StatusRejected,
			reasons: []string{"price must be positive"},
		},
		{
			name:    "missing id",
			row:     row(2, "id", "  ", "price", "3"),
			status:  verification.StatusRejected,
			reasons: []string{"product identifier is required"},
		},
		{
			name:    "malformed row",
			row:     row(2, "id", "A", "price", "3", verification.FieldMalformed, "true"),
			status:  verification.StatusRejected,
			reasons: []string{"row has the wrong number of cells"},
		},
		{
			name:   "currency symbols and id case",
			row:    row(2, "id", " sku-9 ", "price", "$1,299.50", "currency", "zar"),
			status: verification.StatusVerified,
			fields: map[string]string{"id": "SKU-9", "price": "1299.50", "currency": "ZAR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := engine.Evaluate(tt.row)
			assert.Equal(t, tt.status, v.Status)
			if tt.reasons != nil {
				assert.Equal(t, tt.reasons, v.RejectionReasons)
			}
			for k, want := range tt.fields {
				assert.Equal(t, want, v.NormalizedFields[k], k)
			}
		})
	}
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "  "},
		{"not yaml", "rules: [\n"},
		{"missing rules", "version: 1"},
		{"unknown top-level key", "rules: []\nextra: 1"},
		{"rule without id", "rules:\n  - effect: {tag: x}"},
		{"two effects", "rules:\n  - id: a\n    effect: {tag: x, reject: y}"},
		{"unknown transform", "rules:\n  - id: a\n    effect: {normalize: {field: id, transforms: [shout]}}"},
		{"bound without field", "rules:\n  - id: a\n    when: {gt: 1}\n    effect: {tag: x}"},
		{"non numeric bound", "rules:\n  - id: a\n    when: {field: price, gt: abc}\n    effect: {tag: x}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, shared.ErrRuleConfiguration)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Run("invalid regexp", func(t *testing.T) {
		doc, err := Parse([]byte("rules:\n  - id: code-format\n    when: {field: id, matches: '([a-z'}\n    effect: {tag: x}"))
		require.NoError(t, err)

		_, err = doc.Engine()
		assert.ErrorIs(t, err, shared.ErrRuleConfiguration)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "code-format", de.Details["rule_id"])
	})

	t.Run("duplicate ids", func(t *testing.T) {
		doc, err := Parse([]byte("rules:\n  - id: a\n    effect: {tag: x}\n  - id: a\n    effect: {tag: y}"))
		require.NoError(t, err)

		_, err = doc.Engine()
		assert.ErrorIs(t, err, shared.ErrRuleConfiguration)
	})
}

func TestConditions(t *testing.T) {
	doc, err := Parse([]byte(`
rules:
  - id: known-category
    priority: 1
    when: { field: category, in: [Hardware, Software] }
    effect: { tag: categorized }
  - id: short-code
    priority: 2
    when:
      all:
        - { field: id, matches: '^[A-Z]+[0-9]+$' }
        - { field: id, maxLength: 4 }
    effect: { tag: shortCode }
  - id: cheap-or-free
    priority: 3
    when:
      any:
        - { field: price, lte: 5 }
        - { field: price, equals: free }
    effect: { tag: budget }
  - id: premium
    priority: 4
    appliesIf: [categorized]
    when: { field: price, gte: "100.00" }
    effect: { tag: premium }
  - id: no-unit
    priority: 5
    when: { field: unit, present: false }
    effect: { tag: unitMissing }
  - id: numeric-price
    priority: 6
    when: { not: { field: price, numeric: true } }
    effect: { tag: priceText }
`))
	require.NoError(t, err)
	engine, err := doc.Engine()
	require.NoError(t, err)
	assert.Empty(t, engine.Warnings())

	v := engine.Evaluate(row(2, "id", "AB12", "category", "hardware", "price", "150"))
	assert.Equal(t, []string{"categorized", "premium", "shortCode", "unitMissing"}, v.Tags)
	assert.Equal(t, verification.StatusVerified, v.Status)

	v = engine.Evaluate(row(3, "id", "ABCDE1", "price", "free", "unit", "ea"))
	assert.Equal(t, []string{"budget", "priceText"}, v.Tags)

	v = engine.Evaluate(row(4, "id", "A1", "category", "Toys", "price", "500"))
	assert.Equal(t, []string{"shortCode", "unitMissing"}, v.Tags, "premium needs categorized")
}

func TestWarnings_UnreachableTag(t *testing.T) {
	doc, err := Parse([]byte(`
mandatoryTags: [approvedVendor]
rules:
  - id: early
    priority: 1
    appliesIf: [late]
    effect: { tag: early }
  - id: late
    priority: 2
    effect: { tag: late }
`))
	require.NoError(t, err)
	engine, err := doc.Engine()
	require.NoError(t, err)

	warnings := engine.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "early", warnings[0].RuleID)
	assert.Equal(t, "late", warnings[0].Tag)
	assert.Equal(t, "approvedVendor", warnings[1].Tag)
}

func TestJSONDocument(t *testing.T) {
	set, err := Build("inline.json", []byte(`{"mandatoryTags":["ok"],"rules":[{"id":"ok","when":{"field":"id"},"effect":{"tag":"ok"}}]}`))
	require.NoError(t, err)

	v := set.Engine.Evaluate(row(2, "id", "A"))
	assert.Equal(t, verification.StatusVerified, v.Status)
}

func TestTransforms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim", "  a  ", "a"},
		{"upper", "sku1", "SKU1"},
		{"lower", "SKU1", "sku1"},
		{"title", "blue widget", "Blue Widget"},
		{"collapse_spaces", " a   b\tc ", "a b c"},
		{"strip_currency", "$ 1,299.50", "1299.50"},
		{"strip_currency", "ZAR 15", "15"},
		{"strip_currency", "R-5", "-5"},
		{"strip_currency", "N/A", "N/A"},
		{"strip_currency", "12abc3", "12abc3"},
		{"decimal2", "10", "10.00"},
		{"decimal2", "0.125", "0.13"},
		{"decimal2", "ten", "ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, transforms[tt.name](tt.input))
		})
	}

	_, err := chain([]string{"trim", "nope"})
	assert.Error(t, err)
	assert.Contains(t, TransformNames(), "strip_currency")
}

func TestProvider(t *testing.T) {
	t.Run("embedded default", func(t *testing.T) {
		p, err := NewProvider("", zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, SourceDefault, p.Active().Source)
		assert.NotNil(t, p.Engine())
	})

	t.Run("file and failed reload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules:\n  - id: any\n    effect: {tag: seen}\n"), 0o600))

		p, err := NewProvider(path, nil)
		require.NoError(t, err)
		assert.Equal(t, path, p.Active().Source)
		assert.Len(t, p.Engine().Rules(), 1)

		require.NoError(t, os.WriteFile(path, []byte("rules: nope"), 0o600))
		assert.ErrorIs(t, p.Reload(), shared.ErrRuleConfiguration)
		assert.Len(t, p.Engine().Rules(), 1, "previous rule set stays active")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewProvider(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
