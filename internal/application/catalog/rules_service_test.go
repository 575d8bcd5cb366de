package catalog

import (
	"context"
	"testing"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesService_Show(t *testing.T) {
	svc := NewRulesService(newStaticRules(), nil)

	resp := svc.Show(context.Background())
	assert.Equal(t, rules.SourceDefault, resp.Source)
	assert.Equal(t, []string{"priceValid"}, resp.MandatoryTags)
	assert.Empty(t, resp.Warnings)
	require.NotEmpty(t, resp.Rules)

	for i := 1; i < len(resp.Rules); i++ {
		prev, cur := resp.Rules[i-1], resp.Rules[i]
		assert.True(t, prev.Priority < cur.Priority || (prev.Priority == cur.Priority && prev.ID < cur.ID),
			"rules must be listed in evaluation order")
	}

	effects := make(map[string]string)
	for _, r := range resp.Rules {
		effects[r.ID] = r.Effect
	}
	assert.Equal(t, "tag:priceValid", effects["price-valid"])
	assert.Equal(t, "reject:price must be positive", effects["price-positive"])
	assert.Equal(t, "normalize:id:trim+upper", effects["normalize-id"])
}

func TestRulesService_Validate(t *testing.T) {
	svc := NewRulesService(newStaticRules(), nil)
	ctx := context.Background()

	t.Run("default document is valid", func(t *testing.T) {
		result, err := svc.Validate(ctx, rules.DefaultYAML())
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, 7, result.Rules)
		assert.Empty(t, result.Warnings)
	})

	t.Run("unreachable precondition is a warning", func(t *testing.T) {
		doc := []byte(`
version: 1
mandatoryTags: [priceValid]
rules:
  - id: early
    priority: 1
    appliesIf: [priceValid]
    effect: { tag: cheap }
  - id: price-valid
    priority: 10
    when: { field: price, gt: 0 }
    effect: { tag: priceValid }
`)
		result, err := svc.Validate(ctx, doc)
		require.NoError(t, err)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "early", result.Warnings[0].RuleID)
		assert.Equal(t, "priceValid", result.Warnings[0].Tag)
	})

	t.Run("malformed document is a configuration error", func(t *testing.T) {
		_, err := svc.Validate(ctx, []byte("rules: nope"))
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrRuleConfiguration)
	})
}
