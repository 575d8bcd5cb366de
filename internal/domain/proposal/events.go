package proposal

import (
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProposal = "Proposal"

// Event type constants
const (
	EventTypeProposalAssembled = "ProposalAssembled"
)

// ProposalAssembledEvent is published when a proposal is priced and stored
type ProposalAssembledEvent struct {
	shared.BaseDomainEvent
	ClientRef   string   `json:"client_ref"`
	ProductKeys []string `json:"product_keys"`
	Subtotal    string   `json:"subtotal"`
	Total       string   `json:"total"`
	Currency    string   `json:"currency"`
}

// NewProposalAssembledEvent creates a new ProposalAssembledEvent
func NewProposalAssembledEvent(p *Proposal) *ProposalAssembledEvent {
	keys := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		keys = append(keys, item.ProductKey)
	}
	return &ProposalAssembledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProposalAssembled, AggregateTypeProposal, p.ID),
		ClientRef:       p.ClientRef,
		ProductKeys:     keys,
		Subtotal:        p.Subtotal().StringFixed(2),
		Total:           p.Total().StringFixed(2),
		Currency:        string(p.Currency),
	}
}
