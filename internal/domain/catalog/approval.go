package catalog

import (
	"strings"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
)

// Approve moves a pending entry to approved. Approving an approved entry is a
// no-op and reports changed=false so callers skip the write.
func (e *CatalogEntry) Approve() (changed bool, err error) {
	if e.HasConflict() {
		return false, shared.NewUnresolvedConflictError(e.Key)
	}
	switch e.ApprovalState {
	case ApprovalStateApproved:
		return false, nil
	case ApprovalStateRejected:
		return false, shared.NewDomainError(shared.CodeInvalidState, "rejected catalog entry "+e.Key+" cannot be approved")
	}

	now := time.Now()
	e.ApprovalState = ApprovalStateApproved
	e.ApprovedAt = &now
	e.touch()
	e.RecordEvent(NewEntryApprovedEvent(e))
	return true, nil
}

// Reject moves a pending entry to rejected. Rejecting twice is a no-op.
func (e *CatalogEntry) Reject(reason string) (changed bool, err error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return false, shared.NewDomainError(shared.CodeInvalidInput, "rejection reason cannot be empty")
	}
	if e.HasConflict() {
		return false, shared.NewUnresolvedConflictError(e.Key)
	}
	switch e.ApprovalState {
	case ApprovalStateRejected:
		return false, nil
	case ApprovalStateApproved:
		return false, shared.NewDomainError(shared.CodeInvalidState, "approved catalog entry "+e.Key+" cannot be rejected")
	}

	e.ApprovalState = ApprovalStateRejected
	e.RejectionReason = reason
	e.touch()
	e.RecordEvent(NewEntryRejectedEvent(e))
	return true, nil
}

// resetToPending is the only path back to pending, taken when the entry's
// data changes underneath a previous decision
func (e *CatalogEntry) resetToPending() {
	e.ApprovalState = ApprovalStatePending
	e.RejectionReason = ""
	e.ApprovedAt = nil
}

// ApprovalOutcome is the per-entry result of a bulk approval
type ApprovalOutcome string

const (
	OutcomeApproved        ApprovalOutcome = "approved"
	OutcomeAlreadyApproved ApprovalOutcome = "already_approved"
	OutcomeSkippedConflict ApprovalOutcome = "skipped_conflict"
	OutcomeStale           ApprovalOutcome = "stale"
	OutcomeFailed          ApprovalOutcome = "failed"
)

// ApprovalResult reports what happened to one entry during approveAll
type ApprovalResult struct {
	Key     string          `json:"key"`
	Outcome ApprovalOutcome `json:"outcome"`
	Version int             `json:"version"`
	Error   string          `json:"error,omitempty"`
}
