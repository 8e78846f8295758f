package shared

import "context"

// EventPublisher hands committed domain events to subscribers
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventHandler reacts to published events. An empty EventTypes subscribes
// the handler to every event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventBus is a publisher that manages its own subscriptions and delivery loop
type EventBus interface {
	EventPublisher
	// Subscribe registers handler for eventTypes, or for its own EventTypes when none are given
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// NoOpEventPublisher discards every event
type NoOpEventPublisher struct{}

// Publish implements EventPublisher
func (NoOpEventPublisher) Publish(context.Context, ...DomainEvent) error {
	return nil
}
