package verification

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Engine evaluates an ordered rule set against rows. It holds no mutable state
// after construction and is safe for concurrent use.
type Engine struct {
	rules     []Rule
	mandatory []string
	warnings  []RuleConfigurationWarning
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithMandatoryTags sets the tags a row needs before it counts as verified
func WithMandatoryTags(tags ...string) EngineOption {
	return func(e *Engine) {
		e.mandatory = append(e.mandatory, tags...)
	}
}

// NewEngine validates and orders rules by priority, then id.
func NewEngine(rules []Rule, opts ...EngineOption) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	slices.Sort(e.mandatory)
	e.mandatory = slices.Compact(e.mandatory)

	seen := make(map[string]struct{}, len(rules))
	ordered := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if err := r.validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[r.ID]; dup {
			return nil, ruleConfigError(r.ID, "duplicate rule id")
		}
		seen[r.ID] = struct{}{}
		if r.Predicate == nil {
			r.Predicate = Always
		}
		r.AppliesIf = slices.Clone(r.AppliesIf)
		ordered = append(ordered, r)
	}
	slices.SortStableFunc(ordered, func(a, b Rule) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), strings.Compare(a.ID, b.ID))
	})
	e.rules = ordered
	e.warnings = staticWarnings(ordered, e.mandatory)
	return e, nil
}

// staticWarnings finds AppliesIf tags that no strictly earlier rule can produce,
// and mandatory tags no rule produces at all.
func staticWarnings(rules []Rule, mandatory []string) []RuleConfigurationWarning {
	warnings := make([]RuleConfigurationWarning, 0)
	produced := make(map[string]struct{})
	for _, r := range rules {
		for _, tag := range r.AppliesIf {
			if _, ok := produced[tag]; !ok {
				warnings = append(warnings, RuleConfigurationWarning{
					RuleID:  r.ID,
					Tag:     tag,
					Message: fmt.Sprintf("rule %s requires tag %q which no earlier rule produces; it will never fire", r.ID, tag),
				})
			}
		}
		if r.Effect.Kind == EffectTag {
			produced[r.Effect.Label] = struct{}{}
		}
	}
	for _, tag := range mandatory {
		if _, ok := produced[tag]; !ok {
			warnings = append(warnings, RuleConfigurationWarning{
				Tag:     tag,
				Message: fmt.Sprintf("mandatory tag %q is not produced by any rule; no row can be verified", tag),
			})
		}
	}
	return warnings
}

// Rules returns the rules in evaluation order
func (e *Engine) Rules() []Rule {
	return slices.Clone(e.rules)
}

// Warnings returns the configuration warnings found at construction
func (e *Engine) Warnings() []RuleConfigurationWarning {
	return slices.Clone(e.warnings)
}

// MandatoryTags returns the sorted mandatory tag set
func (e *Engine) MandatoryTags() []string {
	return slices.Clone(e.mandatory)
}

type rowView struct {
	row        RawRow
	normalized map[string]string
	tags       map[string]struct{}
}

func (v *rowView) Index() int {
	return v.row.Index()
}

func (v *rowView) Field(name string) (string, bool) {
	if val, ok := v.normalized[name]; ok {
		return val, true
	}
	return v.row.Value(name)
}

func (v *rowView) HasTag(tag string) bool {
	_, ok := v.tags[tag]
	return ok
}

func (v *rowView) hasAll(tags []string) bool {
	for _, t := range tags {
		if !v.HasTag(t) {
			return false
		}
	}
	return true
}

// Evaluate runs the rules over one row in a single ordered pass
func (e *Engine) Evaluate(row RawRow) Verdict {
	view := &rowView{
		row:        row,
		normalized: make(map[string]string),
		tags:       make(map[string]struct{}),
	}
	reasons := make([]string, 0)
	fired := make([]string, 0)

	for _, r := range e.rules {
		if !view.hasAll(r.AppliesIf) {
			continue
		}
		if !r.Predicate.Match(view) {
			continue
		}

		stop := false
		switch r.Effect.Kind {
		case EffectTag:
			view.tags[r.Effect.Label] = struct{}{}
		case EffectReject:
			reasons = append(reasons, r.Effect.Reason)
			stop = true
		case EffectNormalizeField:
			current, ok := view.Field(r.Effect.Field)
			if !ok {
				continue
			}
			view.normalized[r.Effect.Field] = r.Effect.Transform(current)
		}
		fired = append(fired, r.ID)
		if stop {
			break
		}
	}

	tags := slices.Sorted(maps.Keys(view.tags))
	if tags == nil {
		tags = []string{}
	}
	return Verdict{
		Row:              row,
		Status:           e.status(view, reasons),
		Tags:             tags,
		RejectionReasons: reasons,
		NormalizedFields: view.normalized,
		FiredRules:       fired,
	}
}

func (e *Engine) status(view *rowView, reasons []string) Status {
	if len(reasons) > 0 {
		return StatusRejected
	}
	if len(e.mandatory) == 0 {
		if len(view.tags) > 0 {
			return StatusVerified
		}
		return StatusFlagged
	}
	if view.hasAll(e.mandatory) {
		return StatusVerified
	}
	return StatusFlagged
}

// EvaluateAll evaluates rows independently, preserving input order
func (e *Engine) EvaluateAll(rows []RawRow) Report {
	verdicts := make([]Verdict, 0, len(rows))
	for _, row := range rows {
		verdicts = append(verdicts, e.Evaluate(row))
	}
	return Report{Verdicts: verdicts, Warnings: e.Warnings()}
}
