package event

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/backoffice/backend/internal/domain/shared"
)

// DeliveryCounts tallies first deliveries, duplicates, and failures.
// Several handlers may share one instance via WithDeliveryCounts.
type DeliveryCounts struct {
	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// DeliverySnapshot is a point-in-time copy of the counters.
type DeliverySnapshot struct {
	Processed int64 `json:"events_processed"`
	Duplicate int64 `json:"events_duplicate"`
	Failed    int64 `json:"events_failed"`
}

func (c *DeliveryCounts) Snapshot() DeliverySnapshot {
	return DeliverySnapshot{
		Processed: c.processed.Load(),
		Duplicate: c.duplicate.Load(),
		Failed:    c.failed.Load(),
	}
}

// IdempotentHandler guards an EventHandler against redelivery. The
// outbox relay retries aggressively after failures, so handlers with
// side effects like ledger projections sit behind this wrapper.
type IdempotentHandler struct {
	inner  shared.EventHandler
	store  shared.IdempotencyStore
	config shared.IdempotencyConfig
	logger *zap.Logger
	counts *DeliveryCounts
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)

type IdempotentHandlerOption func(*IdempotentHandler)

func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.config = config }
}

// WithDeliveryCounts shares one counter set across several handlers.
func WithDeliveryCounts(counts *DeliveryCounts) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.counts = counts }
}

func NewIdempotentHandler(inner shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		inner:  inner,
		store:  store,
		config: shared.DefaultIdempotencyConfig(),
		logger: logger,
		counts: &DeliveryCounts{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.inner.EventTypes()
}

func (h *IdempotentHandler) Counts() *DeliveryCounts {
	return h.counts
}

// Handle claims the event ID before invoking the wrapped handler. A
// store failure degrades to at-least-once: dropping an event is worse
// than a handler seeing it twice. A handler failure keeps the claim, so
// the redelivery cooldown is the key's TTL.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.inner.Handle(ctx, event)
	}

	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
	}

	if duplicate := h.claim(ctx, event, fields); duplicate {
		h.counts.duplicate.Add(1)
		h.logger.Debug("duplicate event skipped", fields...)
		return nil
	}

	if err := h.inner.Handle(ctx, event); err != nil {
		h.counts.failed.Add(1)
		h.logger.Error("event handler failed", append(fields, zap.Error(err))...)
		return err
	}

	h.counts.processed.Add(1)
	h.logger.Debug("event processed", fields...)
	return nil
}

// claim marks the event ID as seen. Returns true when another delivery
// already holds the claim.
func (h *IdempotentHandler) claim(ctx context.Context, event shared.DomainEvent, fields []zap.Field) bool {
	first, err := h.store.MarkProcessed(ctx, event.EventID().String(), h.config.TTL)
	if err != nil {
		h.logger.Warn("idempotency check failed, delivering anyway", append(fields, zap.Error(err))...)
		return false
	}
	return !first
}
