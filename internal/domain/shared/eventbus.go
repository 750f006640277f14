package shared

import "context"

// EventHandler consumes domain events such as stock movements or
// purchase order transitions.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error

	// EventTypes names the event types this handler wants,
	// e.g. "inventory.stock_credited". Empty means every event.
	EventTypes() []string
}

// EventPublisher publishes domain events to their handlers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registrations.
type EventSubscriber interface {
	// Subscribe registers a handler for the given event types, or for
	// all events when none are given.
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus combines publishing and subscription with a lifecycle for
// its background dispatch.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// OutboxEventSaver writes domain events to the outbox table inside the
// caller's transaction, so ledger writes and their events commit
// atomically. txProvider is the active *gorm.DB transaction.
type OutboxEventSaver interface {
	SaveEvents(ctx context.Context, txProvider any, events ...DomainEvent) error
}
