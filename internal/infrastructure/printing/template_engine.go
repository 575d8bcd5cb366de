package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

const proposalTemplate = "proposal.html.tmpl"

// ProposalDocument is the view model of a printed proposal
type ProposalDocument struct {
	Proposal    *proposal.Proposal
	Analysis    *proposal.CostAnalysis
	Narrative   string
	GeneratedAt time.Time
}

// Paragraphs splits the narrative on blank lines
func (d ProposalDocument) Paragraphs() []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(d.Narrative, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TemplateEngine renders proposal documents to HTML
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine parses the embedded templates
func NewTemplateEngine() (*TemplateEngine, error) {
	tmpl, err := template.New("").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "parse templates", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

// RenderProposal renders the proposal document to a complete HTML page
func (e *TemplateEngine) RenderProposal(doc ProposalDocument) (string, error) {
	if doc.Proposal == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "proposal is required", nil)
	}
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, proposalTemplate, doc); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "execute proposal template", err)
	}
	return buf.String(), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"money":   formatMoney,
		"percent": formatPercent,
		"date":    formatDate,
		"title":   titleCase,
		"inc":     func(i int) int { return i + 1 },
	}
}

// formatMoney renders 1234.5 USD as "1,234.50 USD"
func formatMoney(m valueobject.Money) string {
	s := groupThousands(m.Amount().StringFixed(2))
	if m.Currency() == "" {
		return s
	}
	return s + " " + string(m.Currency())
}

func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, decPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if decPart != "" {
		b.WriteByte('.')
		b.WriteString(decPart)
	}
	return sign + b.String()
}

// formatPercent renders a fraction: 0.2 -> "20.00%"
func formatPercent(v any) string {
	var d decimal.Decimal
	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case valueobject.Rate:
		d = x.Decimal()
	default:
		return fmt.Sprint(v)
	}
	return d.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
