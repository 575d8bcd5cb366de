package catalog

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalState is the approval lifecycle of a catalog entry
type ApprovalState string

const (
	ApprovalStatePending  ApprovalState = "pending"
	ApprovalStateApproved ApprovalState = "approved"
	ApprovalStateRejected ApprovalState = "rejected"
)

// IsValid checks if the state is valid
func (s ApprovalState) IsValid() bool {
	switch s {
	case ApprovalStatePending, ApprovalStateApproved, ApprovalStateRejected:
		return true
	}
	return false
}

// ConflictReason says why an entry needs manual resolution
type ConflictReason string

const (
	ConflictDuplicateInBatch     ConflictReason = "duplicate_in_batch"
	ConflictRejectedOverExisting ConflictReason = "rejected_over_existing"
	ConflictEntryInConflict      ConflictReason = "entry_in_conflict"
)

// ConflictCandidate is one incoming row competing for an entry
type ConflictCandidate struct {
	SourceRowIndex   int                 `json:"source_row_index"`
	Fields           map[string]string   `json:"fields"`
	Tags             []string            `json:"tags"`
	Status           verification.Status `json:"status"`
	RejectionReasons []string            `json:"rejection_reasons,omitempty"`
}

// CandidateFromVerdict converts a verdict into a conflict candidate
func CandidateFromVerdict(v verification.Verdict) ConflictCandidate {
	return ConflictCandidate{
		SourceRowIndex:   v.RowIndex(),
		Fields:           v.Fields(),
		Tags:             slices.Clone(v.Tags),
		Status:           v.Status,
		RejectionReasons: slices.Clone(v.RejectionReasons),
	}
}

// Conflict is an open, unresolved disagreement about an entry's data
type Conflict struct {
	Reason     ConflictReason      `json:"reason"`
	BatchID    uuid.UUID           `json:"batch_id"`
	Candidates []ConflictCandidate `json:"candidates"`
	RaisedAt   time.Time           `json:"raised_at"`
}

// ConflictResolution picks the outcome of a conflict: keep the stored fields,
// or adopt one non-rejected candidate identified by its source row.
type ConflictResolution struct {
	KeepExisting      bool
	CandidateRowIndex int
	Comment           string
}

// CatalogEntry is a product in the verified catalog, keyed by its normalized
// identifier. Only the approval methods below change ApprovalState.
type CatalogEntry struct {
	shared.BaseAggregateRoot
	Key             string
	Fields          map[string]string
	Tags            []string
	ApprovalState   ApprovalState
	RejectionReason string
	Conflict        *Conflict
	BatchID         uuid.UUID
	SourceRowIndex  int
	ApprovedAt      *time.Time
}

// NormalizeKey derives the stable catalog key from a raw identifier
func NormalizeKey(identifier string) string {
	return strings.ToUpper(strings.TrimSpace(identifier))
}

// NewCatalogEntry creates a pending entry from verified data
func NewCatalogEntry(key string, fields map[string]string, tags []string, batchID uuid.UUID, sourceRowIndex int) (*CatalogEntry, error) {
	key = NormalizeKey(key)
	if key == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "catalog entry key cannot be empty")
	}
	entry := &CatalogEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Key:               key,
		Fields:            maps.Clone(fields),
		Tags:              sortedTags(tags),
		ApprovalState:     ApprovalStatePending,
		BatchID:           batchID,
		SourceRowIndex:    sourceRowIndex,
	}
	if entry.Fields == nil {
		entry.Fields = map[string]string{}
	}
	entry.RecordEvent(NewEntryCreatedEvent(entry))
	return entry, nil
}

// NewConflictedEntry creates a placeholder for a new key whose incoming rows
// disagree. It holds no fields until the conflict is resolved.
func NewConflictedEntry(key string, conflict Conflict, sourceRowIndex int) (*CatalogEntry, error) {
	entry, err := NewCatalogEntry(key, nil, nil, conflict.BatchID, sourceRowIndex)
	if err != nil {
		return nil, err
	}
	c := conflict
	entry.Conflict = &c
	entry.RecordEvent(NewEntryConflictRaisedEvent(entry))
	return entry, nil
}

// HasConflict reports whether manual resolution is pending
func (e *CatalogEntry) HasConflict() bool {
	return e.Conflict != nil
}

// IsApproved reports whether the entry can be used in proposals
func (e *CatalogEntry) IsApproved() bool {
	return e.ApprovalState == ApprovalStateApproved && !e.HasConflict()
}

// HasTag reports whether the entry carries tag
func (e *CatalogEntry) HasTag(tag string) bool {
	_, found := slices.BinarySearch(e.Tags, tag)
	return found
}

// Field returns a field value or ""
func (e *CatalogEntry) Field(name string) string {
	return e.Fields[name]
}

// Name returns the product name field
func (e *CatalogEntry) Name() string {
	return e.Fields[verification.FieldName]
}

// UnitPrice parses the price field
func (e *CatalogEntry) UnitPrice() (decimal.Decimal, error) {
	raw := strings.TrimSpace(e.Fields[verification.FieldPrice])
	if raw == "" {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidInput, "catalog entry "+e.Key+" has no price")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidInput, "catalog entry "+e.Key+" has a non-numeric price")
	}
	return d, nil
}

// SameFields reports whether fields equal the stored fields
func (e *CatalogEntry) SameFields(fields map[string]string) bool {
	return maps.Equal(e.Fields, fields)
}

// ApplyUpdate replaces the entry's data with a newer verified row. Changed data
// needs fresh approval, so the entry returns to pending.
func (e *CatalogEntry) ApplyUpdate(fields map[string]string, tags []string, batchID uuid.UUID, sourceRowIndex int) bool {
	if e.SameFields(fields) {
		return false
	}
	previous := e.Fields
	e.Fields = maps.Clone(fields)
	e.Tags = sortedTags(tags)
	e.BatchID = batchID
	e.SourceRowIndex = sourceRowIndex
	e.resetToPending()
	e.touch()
	e.RecordEvent(NewEntryUpdatedEvent(e, previous))
	return true
}

// ConflictListsRows reports whether the open conflict was raised by batchID
// and already holds a candidate for every given source row
func (e *CatalogEntry) ConflictListsRows(batchID uuid.UUID, rows []int) bool {
	if e.Conflict == nil || e.Conflict.BatchID != batchID || len(rows) == 0 {
		return false
	}
	for _, row := range rows {
		if !slices.ContainsFunc(e.Conflict.Candidates, func(c ConflictCandidate) bool {
			return c.SourceRowIndex == row
		}) {
			return false
		}
	}
	return true
}

// MarkConflict opens a conflict, or merges candidates into the open one.
// Candidates the same batch already contributed are not added twice.
func (e *CatalogEntry) MarkConflict(conflict Conflict) {
	if e.Conflict != nil {
		for _, c := range conflict.Candidates {
			if !e.ConflictListsRows(conflict.BatchID, []int{c.SourceRowIndex}) {
				e.Conflict.Candidates = append(e.Conflict.Candidates, c)
			}
		}
		e.Conflict.BatchID = conflict.BatchID
	} else {
		c := conflict
		e.Conflict = &c
	}
	e.BatchID = conflict.BatchID
	e.touch()
	e.RecordEvent(NewEntryConflictRaisedEvent(e))
}

// ResolveConflict closes the open conflict. Adopting a candidate replaces the
// fields; either way the entry goes back to pending for a fresh approval.
func (e *CatalogEntry) ResolveConflict(resolution ConflictResolution) error {
	if e.Conflict == nil {
		return shared.NewDomainError(shared.CodeInvalidState, "catalog entry "+e.Key+" has no open conflict")
	}
	if resolution.KeepExisting {
		if len(e.Fields) == 0 {
			return shared.NewDomainError(shared.CodeInvalidInput, "catalog entry "+e.Key+" has no stored data to keep; pick a candidate")
		}
	} else {
		idx := slices.IndexFunc(e.Conflict.Candidates, func(c ConflictCandidate) bool {
			return c.SourceRowIndex == resolution.CandidateRowIndex
		})
		if idx < 0 {
			return shared.ErrInvalidInput.WithDetail("candidate_row_index", resolution.CandidateRowIndex)
		}
		candidate := e.Conflict.Candidates[idx]
		if candidate.Status == verification.StatusRejected {
			return shared.NewDomainError(shared.CodeInvalidInput, "a rejected row cannot be adopted")
		}
		e.Fields = maps.Clone(candidate.Fields)
		e.Tags = sortedTags(candidate.Tags)
		e.SourceRowIndex = candidate.SourceRowIndex
	}
	resolved := *e.Conflict
	e.Conflict = nil
	e.resetToPending()
	e.touch()
	e.RecordEvent(NewEntryConflictResolvedEvent(e, resolved, resolution))
	return nil
}

func (e *CatalogEntry) touch() {
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
}

func sortedTags(tags []string) []string {
	out := slices.Clone(tags)
	if out == nil {
		return []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
