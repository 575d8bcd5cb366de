package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/bulk"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// Envelope is the wire form of a relayed event
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// Codec maps event types to their Go types. It is not safe for concurrent
// registration; register everything before use.
type Codec struct {
	types map[string]reflect.Type
}

// NewCodec returns a codec that knows every catalog, batch and proposal
// event
func NewCodec() *Codec {
	c := &Codec{types: make(map[string]reflect.Type)}
	c.Register(catalog.EventTypeEntryCreated, &catalog.EntryCreatedEvent{})
	c.Register(catalog.EventTypeEntryUpdated, &catalog.EntryUpdatedEvent{})
	c.Register(catalog.EventTypeEntryApproved, &catalog.EntryApprovedEvent{})
	c.Register(catalog.EventTypeEntryRejected, &catalog.EntryRejectedEvent{})
	c.Register(catalog.EventTypeEntryConflictRaised, &catalog.EntryConflictRaisedEvent{})
	c.Register(catalog.EventTypeEntryConflictResolved, &catalog.EntryConflictResolvedEvent{})
	for _, t := range []string{
		bulk.EventTypeBatchReceived,
		bulk.EventTypeBatchStaged,
		bulk.EventTypeBatchCommitted,
		bulk.EventTypeBatchDiscarded,
	} {
		c.Register(t, &bulk.BatchEvent{})
	}
	c.Register(proposal.EventTypeProposalAssembled, &proposal.ProposalAssembledEvent{})
	return c
}

// Register maps eventType to the type of prototype, a pointer to an event
// struct
func (c *Codec) Register(eventType string, prototype shared.DomainEvent) {
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	c.types[eventType] = t
}

// Encode wraps event in an Envelope
func (c *Codec) Encode(event shared.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event.EventType(), err)
	}
	return json.Marshal(Envelope{
		ID:            event.EventID(),
		Type:          event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	})
}

// Decode unwraps an Envelope. The event is nil when its type was never
// registered; the envelope is still returned.
func (c *Codec) Decode(data []byte) (*Envelope, shared.DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	t, ok := c.types[env.Type]
	if !ok {
		return &env, nil, nil
	}
	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(env.Payload, ptr); err != nil {
		return &env, nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	ev, ok := ptr.(shared.DomainEvent)
	if !ok {
		return &env, nil, fmt.Errorf("%s does not implement DomainEvent", t)
	}
	return &env, ev, nil
}
