package rules

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/shopspring/decimal"
)

// Compile turns the document into engine rules and options
func (d *Document) Compile() ([]verification.Rule, []verification.EngineOption, error) {
	out := make([]verification.Rule, 0, len(d.Rules))
	for _, spec := range d.Rules {
		rule, err := spec.compile()
		if err != nil {
			return nil, nil, err
		}
		out = append(out, rule)
	}

	var opts []verification.EngineOption
	if len(d.MandatoryTags) > 0 {
		opts = append(opts, verification.WithMandatoryTags(d.MandatoryTags...))
	}
	return out, opts, nil
}

// Engine compiles the document and builds a verification engine
func (d *Document) Engine() (*verification.Engine, error) {
	rules, opts, err := d.Compile()
	if err != nil {
		return nil, err
	}
	return verification.NewEngine(rules, opts...)
}

func (s RuleSpec) compile() (verification.Rule, error) {
	rule := verification.Rule{
		ID:          s.ID,
		Description: s.Description,
		Priority:    s.Priority,
		AppliesIf:   slices.Clone(s.AppliesIf),
		Predicate:   verification.Always,
	}

	if s.When != nil {
		pred, err := compileCondition(*s.When)
		if err != nil {
			return verification.Rule{}, configError(s.ID, fmt.Sprintf("rule %s: %v", s.ID, err))
		}
		rule.Predicate = pred
	}

	switch {
	case s.Effect.Tag != "":
		rule.Effect = verification.Tag(s.Effect.Tag)
	case s.Effect.Reject != "":
		rule.Effect = verification.Reject(s.Effect.Reject)
	case s.Effect.Normalize != nil:
		fn, err := chain(s.Effect.Normalize.Transforms)
		if err != nil {
			return verification.Rule{}, configError(s.ID, fmt.Sprintf("rule %s: %v", s.ID, err))
		}
		name := strings.Join(s.Effect.Normalize.Transforms, "+")
		rule.Effect = verification.NormalizeField(s.Effect.Normalize.Field, name, fn)
	default:
		return verification.Rule{}, configError(s.ID, fmt.Sprintf("rule %s: effect is empty", s.ID))
	}
	return rule, nil
}

type check func(row verification.RowView) bool

// compileCondition builds a predicate from every check set on c; an empty
// condition matches everything
func compileCondition(c Condition) (verification.Predicate, error) {
	var checks []check

	if c.Field != "" {
		fieldChecks, err := compileFieldChecks(c)
		if err != nil {
			return nil, err
		}
		checks = append(checks, fieldChecks...)
	}

	if c.HasTag != "" {
		tag := c.HasTag
		checks = append(checks, func(row verification.RowView) bool { return row.HasTag(tag) })
	}

	if len(c.All) > 0 {
		preds, err := compileAll(c.All)
		if err != nil {
			return nil, err
		}
		checks = append(checks, func(row verification.RowView) bool {
			for _, p := range preds {
				if !p.Match(row) {
					return false
				}
			}
			return true
		})
	}

	if len(c.Any) > 0 {
		preds, err := compileAll(c.Any)
		if err != nil {
			return nil, err
		}
		checks = append(checks, func(row verification.RowView) bool {
			for _, p := range preds {
				if p.Match(row) {
					return true
				}
			}
			return false
		})
	}

	if c.Not != nil {
		inner, err := compileCondition(*c.Not)
		if err != nil {
			return nil, err
		}
		checks = append(checks, func(row verification.RowView) bool { return !inner.Match(row) })
	}

	return verification.PredicateFunc(func(row verification.RowView) bool {
		for _, ch := range checks {
			if !ch(row) {
				return false
			}
		}
		return true
	}), nil
}

func compileAll(conds []Condition) ([]verification.Predicate, error) {
	preds := make([]verification.Predicate, 0, len(conds))
	for _, c := range conds {
		p, err := compileCondition(c)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// compileFieldChecks handles the checks bound to c.Field. Every check other
// than present:false needs the field to exist.
func compileFieldChecks(c Condition) ([]check, error) {
	field := c.Field
	value := func(row verification.RowView) (string, bool) {
		v, ok := row.Field(field)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	var checks []check

	if c.Present != nil {
		want := *c.Present
		checks = append(checks, func(row verification.RowView) bool {
			_, ok := value(row)
			return ok == want
		})
	}

	if c.Equals != nil {
		want := string(*c.Equals)
		checks = append(checks, func(row verification.RowView) bool {
			v, _ := row.Field(field)
			return strings.EqualFold(strings.TrimSpace(v), want)
		})
	}

	if len(c.In) > 0 {
		set := make([]string, len(c.In))
		for i, s := range c.In {
			set[i] = string(s)
		}
		checks = append(checks, func(row verification.RowView) bool {
			v, _ := row.Field(field)
			v = strings.TrimSpace(v)
			return slices.ContainsFunc(set, func(s string) bool { return strings.EqualFold(s, v) })
		})
	}

	if c.Matches != "" {
		re, err := regexp.Compile(c.Matches)
		if err != nil {
			return nil, fmt.Errorf("field %s: invalid pattern: %w", field, err)
		}
		checks = append(checks, func(row verification.RowView) bool {
			v, ok := row.Field(field)
			return ok && re.MatchString(v)
		})
	}

	if c.Numeric != nil {
		want := *c.Numeric
		checks = append(checks, func(row verification.RowView) bool {
			v, _ := value(row)
			_, err := decimal.NewFromString(v)
			return (err == nil) == want
		})
	}

	bounds := []struct {
		limit *Scalar
		ok    func(cmp int) bool
	}{
		{c.GT, func(cmp int) bool { return cmp > 0 }},
		{c.GTE, func(cmp int) bool { return cmp >= 0 }},
		{c.LT, func(cmp int) bool { return cmp < 0 }},
		{c.LTE, func(cmp int) bool { return cmp <= 0 }},
	}
	for _, b := range bounds {
		if b.limit == nil {
			continue
		}
		limit, err := decimal.NewFromString(strings.TrimSpace(string(*b.limit)))
		if err != nil {
			return nil, fmt.Errorf("field %s: invalid bound %q", field, *b.limit)
		}
		ok := b.ok
		// non-numeric values never satisfy a bound
		checks = append(checks, func(row verification.RowView) bool {
			v, present := value(row)
			if !present {
				return false
			}
			d, err := decimal.NewFromString(v)
			return err == nil && ok(d.Cmp(limit))
		})
	}

	if c.MinLength != nil {
		n := *c.MinLength
		checks = append(checks, func(row verification.RowView) bool {
			v, _ := value(row)
			return utf8.RuneCountInString(v) >= n
		})
	}

	if c.MaxLength != nil {
		n := *c.MaxLength
		checks = append(checks, func(row verification.RowView) bool {
			v, _ := value(row)
			return utf8.RuneCountInString(v) <= n
		})
	}

	// a bare field condition means "present"
	if len(checks) == 0 {
		checks = append(checks, func(row verification.RowView) bool {
			_, ok := value(row)
			return ok
		})
	}
	return checks, nil
}
