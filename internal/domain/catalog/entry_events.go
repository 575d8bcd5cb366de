package catalog

import (
	"maps"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeCatalogEntry = "CatalogEntry"

// Event type constants
const (
	EventTypeEntryCreated          = "CatalogEntryCreated"
	EventTypeEntryUpdated          = "CatalogEntryUpdated"
	EventTypeEntryApproved         = "CatalogEntryApproved"
	EventTypeEntryRejected         = "CatalogEntryRejected"
	EventTypeEntryConflictRaised   = "CatalogEntryConflictRaised"
	EventTypeEntryConflictResolved = "CatalogEntryConflictResolved"
)

// EntryCreatedEvent is published when a new key enters the catalog
type EntryCreatedEvent struct {
	shared.BaseDomainEvent
	Key     string            `json:"key"`
	Fields  map[string]string `json:"fields"`
	BatchID uuid.UUID         `json:"batch_id"`
}

// NewEntryCreatedEvent creates a new EntryCreatedEvent
func NewEntryCreatedEvent(e *CatalogEntry) *EntryCreatedEvent {
	return &EntryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryCreated, AggregateTypeCatalogEntry, e.ID),
		Key:             e.Key,
		Fields:          maps.Clone(e.Fields),
		BatchID:         e.BatchID,
	}
}

// EntryUpdatedEvent is published when an upload changes an entry's fields
type EntryUpdatedEvent struct {
	shared.BaseDomainEvent
	Key            string            `json:"key"`
	PreviousFields map[string]string `json:"previous_fields"`
	Fields         map[string]string `json:"fields"`
	Version        int               `json:"version"`
	BatchID        uuid.UUID         `json:"batch_id"`
}

// NewEntryUpdatedEvent creates a new EntryUpdatedEvent
func NewEntryUpdatedEvent(e *CatalogEntry, previous map[string]string) *EntryUpdatedEvent {
	return &EntryUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryUpdated, AggregateTypeCatalogEntry, e.ID),
		Key:             e.Key,
		PreviousFields:  maps.Clone(previous),
		Fields:          maps.Clone(e.Fields),
		Version:         e.Version,
		BatchID:         e.BatchID,
	}
}

// EntryApprovedEvent is published on the first approval of an entry version
type EntryApprovedEvent struct {
	shared.BaseDomainEvent
	Key     string `json:"key"`
	Version int    `json:"version"`
}

// NewEntryApprovedEvent creates a new EntryApprovedEvent
func NewEntryApprovedEvent(e *CatalogEntry) *EntryApprovedEvent {
	return &EntryApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryApproved, AggregateTypeCatalogEntry, e.ID),
		Key:             e.Key,
		Version:         e.Version,
	}
}

// EntryRejectedEvent is published when a reviewer rejects an entry
type EntryRejectedEvent struct {
	shared.BaseDomainEvent
	Key     string `json:"key"`
	Reason  string `json:"reason"`
	Version int    `json:"version"`
}

// NewEntryRejectedEvent creates a new EntryRejectedEvent
func NewEntryRejectedEvent(e *CatalogEntry) *EntryRejectedEvent {
	return &EntryRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryRejected, AggregateTypeCatalogEntry, e.ID),
		Key:             e.Key,
		Reason:          e.RejectionReason,
		Version:         e.Version,
	}
}

// EntryConflictRaisedEvent is published when an entry needs manual resolution
type EntryConflictRaisedEvent struct {
	shared.BaseDomainEvent
	Key        string         `json:"key"`
	Reason     ConflictReason `json:"reason"`
	Candidates int            `json:"candidates"`
	BatchID    uuid.UUID      `json:"batch_id"`
}

// NewEntryConflictRaisedEvent creates a new EntryConflictRaisedEvent
func NewEntryConflictRaisedEvent(e *CatalogEntry) *EntryConflictRaisedEvent {
	ev := &EntryConflictRaisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryConflictRaised, AggregateTypeCatalogEntry, e.ID),
		Key:             e.Key,
		BatchID:         e.BatchID,
	}
	if e.Conflict != nil {
		ev.Reason = e.Conflict.Reason
		ev.Candidates = len(e.Conflict.Candidates)
	}
	return ev
}

// EntryConflictResolvedEvent is published when a reviewer closes a conflict
type EntryConflictResolvedEvent struct {
	shared.BaseDomainEvent
	Key             string         `json:"key"`
	Reason          ConflictReason `json:"reason"`
	KeptExisting    bool           `json:"kept_existing"`
	AdoptedRowIndex int            `json:"adopted_row_index,omitempty"`
	Comment         string         `json:"comment,omitempty"`
	Version         int            `json:"version"`
}

// NewEntryConflictResolvedEvent creates a new EntryConflictResolvedEvent
func NewEntryConflictResolvedEvent(e *CatalogEntry, resolved Conflict, resolution ConflictResolution) *EntryConflictResolvedEvent {
	ev := &EntryConflictResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryConflictResolved, AggregateTypeCatalogEntry, e.ID),
		Key:             e.Key,
		Reason:          resolved.Reason,
		KeptExisting:    resolution.KeepExisting,
		Comment:         resolution.Comment,
		Version:         e.Version,
	}
	if !resolution.KeepExisting {
		ev.AdoptedRowIndex = resolution.CandidateRowIndex
	}
	return ev
}
