package proposal

import (
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssembleProposalRequest represents a request to price a new proposal.
// Quantities and discounts are checked by the assembler so that the
// caller gets the precise error code.
type AssembleProposalRequest struct {
	ClientRef string           `json:"client_ref" binding:"required,notblank,max=100"`
	Title     string           `json:"title" binding:"max=200"`
	Lines     []LineRequest    `json:"lines" binding:"required,min=1,dive"`
	Discount  *DiscountRequest `json:"discount"`
}

// LineRequest asks for a quantity of one approved product
type LineRequest struct {
	ProductKey   string          `json:"product_key" binding:"required,notblank,max=100"`
	Quantity     int             `json:"quantity"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
}

// DiscountRequest is a proposal-level discount, either a rate or an amount
type DiscountRequest struct {
	Rate   *decimal.Decimal `json:"rate"`
	Amount *decimal.Decimal `json:"amount"`
}

func (r AssembleProposalRequest) toDomain() proposal.AssemblyRequest {
	lines := make([]proposal.LineRequest, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = proposal.LineRequest{ProductKey: l.ProductKey, Quantity: l.Quantity, DiscountRate: l.DiscountRate}
	}
	req := proposal.AssemblyRequest{ClientRef: r.ClientRef, Title: r.Title, Lines: lines}
	if r.Discount != nil {
		req.Discount = &proposal.DiscountRequest{Rate: r.Discount.Rate, Amount: r.Discount.Amount}
	}
	return req
}

// CostAnalysisRequest carries the client's current spend
type CostAnalysisRequest struct {
	CurrentCostTotal decimal.Decimal `json:"current_cost_total"`
	WithNarrative    bool            `json:"with_narrative"`
}

// CompareCostsRequest compares two totals without a stored proposal
type CompareCostsRequest struct {
	CurrentCostTotal decimal.Decimal `json:"current_cost_total"`
	NewCostTotal     decimal.Decimal `json:"new_cost_total"`
	Currency         string          `json:"currency" binding:"omitempty,iso4217"`
}

// LineItemResponse represents one priced line
type LineItemResponse struct {
	ProductKey   string            `json:"product_key"`
	ProductName  string            `json:"product_name"`
	Quantity     int               `json:"quantity"`
	UnitPrice    valueobject.Money `json:"unit_price"`
	DiscountRate valueobject.Rate  `json:"discount_rate"`
	LineTotal    valueobject.Money `json:"line_total"`
	// ProductVersion is the catalog entry version the price was taken from
	ProductVersion int `json:"product_version"`
}

// ProposalResponse represents a proposal in API responses
type ProposalResponse struct {
	ID             uuid.UUID            `json:"id"`
	ClientRef      string               `json:"client_ref"`
	Title          string               `json:"title,omitempty"`
	Currency       valueobject.Currency `json:"currency"`
	Items          []LineItemResponse   `json:"items"`
	Discount       *proposal.Discount   `json:"discount,omitempty"`
	Subtotal       valueobject.Money    `json:"subtotal"`
	DiscountAmount valueobject.Money    `json:"discount_amount"`
	Total          valueobject.Money    `json:"total"`
	TotalQuantity  int                  `json:"total_quantity"`
	CreatedAt      time.Time            `json:"created_at"`
}

// ProposalListItem is the summary shown in listings
type ProposalListItem struct {
	ID        uuid.UUID            `json:"id"`
	ClientRef string               `json:"client_ref"`
	Title     string               `json:"title,omitempty"`
	Currency  valueobject.Currency `json:"currency"`
	Lines     int                  `json:"lines"`
	Total     valueobject.Money    `json:"total"`
	CreatedAt time.Time            `json:"created_at"`
}

// CostAnalysisResponse is a cost comparison, optionally with narrative text
type CostAnalysisResponse struct {
	ProposalID       *uuid.UUID        `json:"proposal_id,omitempty"`
	CurrentCostTotal valueobject.Money `json:"current_cost_total"`
	NewCostTotal     valueobject.Money `json:"new_cost_total"`
	SavingsAmount    valueobject.Money `json:"savings_amount"`
	SavingsRate      string            `json:"savings_rate"`
	Narrative        string            `json:"narrative,omitempty"`
	// NarrativeError explains a missing narrative; the figures are still valid
	NarrativeError string `json:"narrative_error,omitempty"`
}

// ToProposalResponse converts a domain proposal to a response
func ToProposalResponse(p *proposal.Proposal) ProposalResponse {
	items := make([]LineItemResponse, len(p.Items))
	for i, item := range p.Items {
		items[i] = LineItemResponse{
			ProductKey:     item.ProductKey,
			ProductName:    item.Product.Name,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountRate:   item.DiscountRate,
			LineTotal:      item.LineTotal(),
			ProductVersion: item.Product.Version,
		}
	}
	return ProposalResponse{
		ID:             p.ID,
		ClientRef:      p.ClientRef,
		Title:          p.Title,
		Currency:       p.Currency,
		Items:          items,
		Discount:       p.Discount,
		Subtotal:       p.Subtotal(),
		DiscountAmount: p.DiscountAmount(),
		Total:          p.Total(),
		TotalQuantity:  p.TotalQuantity(),
		CreatedAt:      p.CreatedAt,
	}
}

// ToProposalListItems converts proposals to list items
func ToProposalListItems(proposals []proposal.Proposal) []ProposalListItem {
	out := make([]ProposalListItem, len(proposals))
	for i := range proposals {
		p := &proposals[i]
		out[i] = ProposalListItem{
			ID:        p.ID,
			ClientRef: p.ClientRef,
			Title:     p.Title,
			Currency:  p.Currency,
			Lines:     len(p.Items),
			Total:     p.Total(),
			CreatedAt: p.CreatedAt,
		}
	}
	return out
}

func toCostAnalysisResponse(a proposal.CostAnalysis) CostAnalysisResponse {
	return CostAnalysisResponse{
		CurrentCostTotal: a.CurrentCostTotal,
		NewCostTotal:     a.NewCostTotal,
		SavingsAmount:    a.SavingsAmount,
		SavingsRate:      a.SavingsRateString(),
	}
}
