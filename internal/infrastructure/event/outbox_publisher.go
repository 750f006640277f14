package event

import (
	"context"
	"fmt"

	"github.com/backoffice/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher stages domain events as outbox rows inside the same
// transaction that persists the aggregate, so an event is never written
// without its state change or vice versa.
type OutboxPublisher struct {
	serializer *EventSerializer
}

func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer}
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)

// SaveEvents serializes each event and inserts it into the outbox using
// the caller's open transaction. txProvider must be the *gorm.DB handle
// the repository is committing on.
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider any, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("outbox publisher requires *gorm.DB, got %T", txProvider)
	}

	entries, err := p.stage(events)
	if err != nil {
		return err
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

func (p *OutboxPublisher) stage(events []shared.DomainEvent) ([]*shared.OutboxEntry, error) {
	entries := make([]*shared.OutboxEntry, len(events))
	for i, ev := range events {
		payload, err := p.serializer.Serialize(ev)
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", ev.EventType(), err)
		}
		entries[i] = shared.NewOutboxEntry(ev, payload)
	}
	return entries, nil
}
