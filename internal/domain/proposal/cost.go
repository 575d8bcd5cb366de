package proposal

import (
	"fmt"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CostAnalysis compares a client's current spend with the proposed total.
// SavingsRate is savings / current, and 0 when current is 0.
type CostAnalysis struct {
	CurrentCostTotal valueobject.Money `json:"current_cost_total"`
	NewCostTotal     valueobject.Money `json:"new_cost_total"`
	SavingsAmount    valueobject.Money `json:"savings_amount"`
	SavingsRate      decimal.Decimal   `json:"savings_rate"`
}

// SavingsRateString renders the rate with four decimals
func (c CostAnalysis) SavingsRateString() string {
	return c.SavingsRate.StringFixed(valueobject.RatePlaces)
}

// IsSaving reports whether the new cost is lower than the current one
func (c CostAnalysis) IsSaving() bool {
	return c.SavingsAmount.IsPositive()
}

// CalculateCostAnalysis computes savings and savings rate. Negative savings
// (the new cost is higher) are reported as is.
func CalculateCostAnalysis(current, proposed valueobject.Money) (CostAnalysis, error) {
	if current.IsNegative() || proposed.IsNegative() {
		return CostAnalysis{}, shared.NewDomainError(shared.CodeInvalidInput, "cost totals cannot be negative")
	}
	savings, err := current.Subtract(proposed)
	if err != nil {
		return CostAnalysis{}, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("cannot compare costs: %v", err))
	}

	rate := decimal.Zero
	if !current.IsZero() {
		rate = savings.Amount().DivRound(current.Amount(), valueobject.RatePlaces)
	}

	return CostAnalysis{
		CurrentCostTotal: current.RoundCents(),
		NewCostTotal:     proposed.RoundCents(),
		SavingsAmount:    savings.RoundCents(),
		SavingsRate:      rate,
	}, nil
}
