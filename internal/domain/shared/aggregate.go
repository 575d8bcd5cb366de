package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BaseAggregateRoot is embedded by aggregates that persist with an
// optimistic version and raise domain events. Events stay pending until the
// owning service publishes them and calls ClearEvents.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	pending []DomainEvent
}

// NewBaseAggregateRoot returns a fresh identity at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{
		BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Version:    1,
	}
}

func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// RecordEvent queues event for publication
func (a *BaseAggregateRoot) RecordEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

func (a *BaseAggregateRoot) PendingEvents() []DomainEvent {
	return a.pending
}

func (a *BaseAggregateRoot) ClearEvents() {
	a.pending = nil
}
