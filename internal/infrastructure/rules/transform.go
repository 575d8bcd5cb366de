package rules

import (
	"sort"
	"strings"
	"unicode"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// transforms is the vocabulary available to normalize effects
var transforms = map[string]verification.Transform{
	"trim":  strings.TrimSpace,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"title": func(v string) string {
		// a Caser keeps state, so each call gets its own
		return cases.Title(language.Und).String(v)
	},
	"collapse_spaces": func(v string) string {
		return strings.Join(strings.Fields(v), " ")
	},
	"strip_currency": stripCurrency,
	"decimal2": func(v string) string {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return v
		}
		return d.StringFixed(2)
	},
}

// TransformNames lists the known transforms in sorted order
func TransformNames() []string {
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// stripCurrency removes currency symbols, ISO-style letter codes around the
// number, thousands separators and spaces: "$ 1,299.50" -> "1299.50",
// "ZAR 15" -> "15". Values with letters inside the number, or without
// digits, are left alone.
func stripCurrency(v string) string {
	s := strings.TrimSpace(v)
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.Is(unicode.Sc, r) || unicode.IsSpace(r)
	})
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Sc, r), unicode.IsSpace(r), r == ',':
			continue
		case unicode.IsLetter(r):
			return v
		}
		b.WriteRune(r)
	}
	if !strings.ContainsAny(b.String(), "0123456789") {
		return v
	}
	return b.String()
}

// chain composes named transforms left to right
func chain(names []string) (verification.Transform, error) {
	steps := make([]verification.Transform, 0, len(names))
	for _, name := range names {
		fn, ok := transforms[name]
		if !ok {
			return nil, errUnknownTransform(name)
		}
		steps = append(steps, fn)
	}
	return func(v string) string {
		for _, step := range steps {
			v = step(v)
		}
		return v
	}, nil
}

type errUnknownTransform string

func (e errUnknownTransform) Error() string {
	return "unknown transform " + string(e)
}
