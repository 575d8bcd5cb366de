package verification

import (
	"fmt"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
)

// RowView is what a predicate sees: the raw row overlaid with the fields
// normalized so far, plus the tags accumulated by earlier rules.
type RowView interface {
	Index() int
	Field(name string) (string, bool)
	HasTag(tag string) bool
}

// Predicate is a pure test over a row view
type Predicate interface {
	Match(row RowView) bool
}

// PredicateFunc adapts a function to Predicate
type PredicateFunc func(row RowView) bool

// Match implements Predicate
func (f PredicateFunc) Match(row RowView) bool {
	return f(row)
}

// Always matches every row
var Always Predicate = PredicateFunc(func(RowView) bool { return true })

// Transform rewrites a single field value
type Transform func(value string) string

// EffectKind enumerates what a rule does when it fires
type EffectKind string

const (
	EffectTag            EffectKind = "tag"
	EffectReject         EffectKind = "reject"
	EffectNormalizeField EffectKind = "normalize_field"
)

// Effect is a tagged variant; only the fields matching Kind are meaningful
type Effect struct {
	Kind          EffectKind
	Label         string
	Reason        string
	Field         string
	TransformName string
	Transform     Transform
}

// Tag returns an effect adding label to the row's tag set
func Tag(label string) Effect {
	return Effect{Kind: EffectTag, Label: label}
}

// Reject returns an effect rejecting the row with reason
func Reject(reason string) Effect {
	return Effect{Kind: EffectReject, Reason: reason}
}

// NormalizeField returns an effect rewriting field via transform
func NormalizeField(field, name string, transform Transform) Effect {
	return Effect{Kind: EffectNormalizeField, Field: field, TransformName: name, Transform: transform}
}

func (e Effect) validate() error {
	switch e.Kind {
	case EffectTag:
		if e.Label == "" {
			return fmt.Errorf("tag effect requires a label")
		}
	case EffectReject:
		if e.Reason == "" {
			return fmt.Errorf("reject effect requires a reason")
		}
	case EffectNormalizeField:
		if e.Field == "" {
			return fmt.Errorf("normalize effect requires a field")
		}
		if e.Transform == nil {
			return fmt.Errorf("normalize effect on %q requires a transform", e.Field)
		}
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind)
	}
	return nil
}

// Rule is read-only verification configuration
type Rule struct {
	ID          string
	Description string
	Priority    int
	Predicate   Predicate
	Effect      Effect
	AppliesIf   []string
}

func (r Rule) validate() error {
	if r.ID == "" {
		return shared.ErrRuleConfiguration.WithDetail("reason", "rule id cannot be empty")
	}
	if err := r.Effect.validate(); err != nil {
		return ruleConfigError(r.ID, err.Error())
	}
	return nil
}

func ruleConfigError(ruleID, reason string) *shared.DomainError {
	return &shared.DomainError{
		Code:    shared.CodeRuleConfiguration,
		Message: fmt.Sprintf("rule %s: %s", ruleID, reason),
		Details: map[string]any{"rule_id": ruleID},
	}
}

// RuleConfigurationWarning flags a rule whose AppliesIf tag can never be present
// when the rule runs. It is reported, never raised.
type RuleConfigurationWarning struct {
	RuleID  string `json:"rule_id"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}
