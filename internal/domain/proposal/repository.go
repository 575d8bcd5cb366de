package proposal

import (
	"context"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// ProposalFilter narrows proposal listings
type ProposalFilter struct {
	shared.Filter
	ClientRef string
}

// ProposalRepository defines the interface for proposal persistence
type ProposalRepository interface {
	// FindByID finds a proposal by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Proposal, error)

	// FindAll finds proposals matching the filter
	FindAll(ctx context.Context, filter ProposalFilter) ([]Proposal, error)

	// Count counts proposals matching the filter
	Count(ctx context.Context, filter ProposalFilter) (int64, error)

	// Save stores a newly assembled proposal. Proposals are never updated.
	Save(ctx context.Context, p *Proposal) error
}
