package shared

import "context"

// EventPublisher delivers domain events after their aggregate is saved
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}
