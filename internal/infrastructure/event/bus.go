// Package event dispatches domain events to in-process handlers and relays
// them to NATS.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"go.uber.org/zap"
)

// Handler reacts to one published event
type Handler func(ctx context.Context, event shared.DomainEvent) error

// Forwarder relays events to an external broker after local handlers ran
type Forwarder interface {
	Forward(ctx context.Context, event shared.DomainEvent) error
}

// Bus runs subscribed handlers synchronously in publish order and then hands
// each event to the forwarders. Neither handler nor forwarder failures reach
// the publisher; they are logged.
type Bus struct {
	mu         sync.RWMutex
	byType     map[string][]Handler
	all        []Handler
	forwarders []Forwarder
	logger     *zap.Logger
}

// NewBus creates a bus without handlers
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{byType: make(map[string][]Handler), logger: logger}
}

// Subscribe registers h for the given event types, or for every event when
// none are given
func (b *Bus) Subscribe(h Handler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.all = append(b.all, h)
		return
	}
	for _, t := range eventTypes {
		b.byType[t] = append(b.byType[t], h)
	}
}

// AddForwarder appends f to the relays every event is handed to
func (b *Bus) AddForwarder(f Forwarder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwarders = append(b.forwarders, f)
}

// Publish implements shared.EventPublisher
func (b *Bus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, ev := range events {
		b.mu.RLock()
		handlers := append(append([]Handler(nil), b.byType[ev.EventType()]...), b.all...)
		forwarders := append([]Forwarder(nil), b.forwarders...)
		b.mu.RUnlock()

		for _, h := range handlers {
			if err := safeHandle(ctx, h, ev); err != nil {
				b.logger.Error("Event handler failed",
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID().String()),
					zap.Error(err),
				)
			}
		}
		for _, f := range forwarders {
			if err := f.Forward(ctx, ev); err != nil {
				b.logger.Warn("Event forwarding failed",
					zap.String("event_type", ev.EventType()),
					zap.String("event_id", ev.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

func safeHandle(ctx context.Context, h Handler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, ev)
}

// AuditLog returns a handler that writes every event to logger at debug
func AuditLog(logger *zap.Logger) Handler {
	return func(_ context.Context, ev shared.DomainEvent) error {
		logger.Debug("Domain event",
			zap.String("event_type", ev.EventType()),
			zap.String("aggregate_type", ev.AggregateType()),
			zap.String("aggregate_id", ev.AggregateID().String()),
			zap.Time("occurred_at", ev.OccurredAt()),
		)
		return nil
	}
}

var _ shared.EventPublisher = (*Bus)(nil)
