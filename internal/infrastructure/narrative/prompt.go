package narrative

import (
	"fmt"
	"strings"

	proposalapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/proposal"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BuildPrompt lists the proposal figures for the completion endpoint. The
// output only depends on the request.
func BuildPrompt(req proposalapp.NarrativeRequest) string {
	p := req.Proposal
	var b strings.Builder
	fmt.Fprintf(&b, "Client: %s\n", p.ClientRef)
	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	}
	b.WriteString("Lines:\n")
	for _, item := range p.Items {
		name := item.Product.Name
		if name == "" {
			name = item.ProductKey
		}
		fmt.Fprintf(&b, "- %s (%s): %d x %s", name, item.ProductKey, item.Quantity, item.UnitPrice)
		if !item.DiscountRate.IsZero() {
			fmt.Fprintf(&b, " less %s", item.DiscountRate.Decimal().Mul(hundred).StringFixed(1)+"%")
		}
		fmt.Fprintf(&b, " = %s\n", item.LineTotal())
	}
	fmt.Fprintf(&b, "Subtotal: %s\n", p.Subtotal())
	if p.Discount != nil {
		fmt.Fprintf(&b, "Proposal discount: %s\n", p.DiscountAmount())
	}
	fmt.Fprintf(&b, "Total: %s\n", p.Total())
	if a := req.Analysis; a != nil {
		fmt.Fprintf(&b, "Current spend: %s\n", a.CurrentCostTotal)
		fmt.Fprintf(&b, "Savings: %s (rate %s)\n", a.SavingsAmount, a.SavingsRateString())
	}
	return b.String()
}
