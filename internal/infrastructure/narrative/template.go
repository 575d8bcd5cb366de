package narrative

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	proposalapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const summaryTemplate = `This proposal for {{.Proposal.ClientRef}} covers {{len .Proposal.Items}} {{plural (len .Proposal.Items) "product" "products"}} and {{.Proposal.TotalQuantity}} {{plural .Proposal.TotalQuantity "unit" "units"}} in total, for {{.Proposal.Total}}.
{{- if .Proposal.Discount}} A discount of {{.Proposal.DiscountAmount}} is already included.{{end}}
{{- with .Analysis}}

{{if .IsSaving}}Compared with the current spend of {{.CurrentCostTotal}}, the client saves {{.SavingsAmount}}, which is {{percent .SavingsRate}} of today's cost.
{{- else if .SavingsAmount.IsZero}}The proposed total matches the current spend of {{.CurrentCostTotal}}.
{{- else}}The proposed total is {{abs .SavingsAmount}} above the current spend of {{.CurrentCostTotal}}.{{end}}
{{- end}}`

// TemplateGenerator builds the narrative from a fixed template. The same
// proposal always yields the same text.
type TemplateGenerator struct {
	tmpl *template.Template
}

// NewTemplateGenerator parses the built-in template
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{
		tmpl: template.Must(template.New("summary").Funcs(template.FuncMap{
			"plural": func(n int, one, many string) string {
				if n == 1 {
					return one
				}
				return many
			},
			"percent": func(rate decimal.Decimal) string {
				return rate.Mul(hundred).StringFixed(1) + "%"
			},
			"abs": func(m interface{ String() string }) string {
				return strings.TrimPrefix(m.String(), "-")
			},
		}).Parse(summaryTemplate)),
	}
}

// Generate implements proposalapp.NarrativeGenerator
func (g *TemplateGenerator) Generate(_ context.Context, req proposalapp.NarrativeRequest) (string, error) {
	if req.Proposal == nil {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "proposal is required")
	}
	var buf bytes.Buffer
	err := g.tmpl.Execute(&buf, struct {
		Proposal *proposal.Proposal
		Analysis *proposal.CostAnalysis
	}{req.Proposal, req.Analysis})
	if err != nil {
		return "", shared.NewDomainError(shared.CodeNarrativeUnavailable, "render narrative template: "+err.Error())
	}
	return strings.TrimSpace(buf.String()), nil
}
