package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

const (
	// DefaultBookingAttempts is the bounded retry budget per entry
	DefaultBookingAttempts = 3
	// bookingRetryDelay is the pause between retries of a transient failure
	bookingRetryDelay = 200 * time.Millisecond
)

// EntryBooker submits bookkeeping entries for replenishment events. A
// submission that keeps failing never blocks the stock credit: the booker
// writes a pending ReconciliationTask through the caller's transaction and
// reports success, so the batch commits with the entry marked missing
// rather than rolling back received goods.
type EntryBooker struct {
	gateway     bookkeeping.Gateway
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// NewEntryBooker creates an EntryBooker with the default retry budget
func NewEntryBooker(gateway bookkeeping.Gateway, idempotency shared.IdempotencyStore, logger *zap.Logger) *EntryBooker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryBooker{
		gateway:     gateway,
		idempotency: idempotency,
		idemConfig:  shared.DefaultIdempotencyConfig(),
		maxAttempts: DefaultBookingAttempts,
		retryDelay:  bookingRetryDelay,
		logger:      logger,
	}
}

// SetMaxAttempts overrides the retry budget
func (b *EntryBooker) SetMaxAttempts(attempts int) {
	if attempts > 0 {
		b.maxAttempts = attempts
	}
}

// SetRetryDelay overrides the pause between retries
func (b *EntryBooker) SetRetryDelay(delay time.Duration) {
	b.retryDelay = delay
}

// Book submits one bookkeeping entry for the replenishment event, keyed by
// the event ID so the remote system can dedupe retried submissions. On
// success the event is linked to the returned entry ID. On exhausted or
// terminal failure a ReconciliationTask is written through reconRepo and
// nil is returned; only unexpected repository errors propagate.
func (b *EntryBooker) Book(ctx context.Context, event *inventory.ReplenishmentEvent, category bookkeeping.EntryCategory, memo string, reconRepo bookkeeping.ReconciliationTaskRepository) error {
	entry, err := bookkeeping.NewEntry(event.ID, category, valueobject.NewMoneyUSD(event.BatchCost), event.OccurredOn, memo)
	if err != nil {
		return b.queueReconciliation(ctx, event, category, err, 0, reconRepo)
	}

	if b.alreadyBooked(ctx, event) {
		// A previous attempt reached the gateway but its transaction did
		// not commit. The remote dedupes on the reference ID, so a single
		// resubmission recovers the existing entry ID instead of booking
		// the expense again.
		b.logger.Info("bookkeeping entry already submitted, recovering entry ID",
			zap.String("event_id", event.ID.String()))
		entryID, err := b.gateway.Record(ctx, entry)
		if err != nil {
			return b.queueReconciliation(ctx, event, category, err, 1, reconRepo)
		}
		event.WithBookkeepingEntry(entryID)
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		entryID, err := b.gateway.Record(ctx, entry)
		if err == nil {
			event.WithBookkeepingEntry(entryID)
			b.markBooked(ctx, event)
			return nil
		}
		lastErr = err

		if !shared.IsRetryable(err) {
			return b.queueReconciliation(ctx, event, category, err, attempt, reconRepo)
		}

		b.logger.Warn("bookkeeping gateway unavailable, retrying",
			zap.String("event_id", event.ID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < b.maxAttempts {
			select {
			case <-ctx.Done():
				return b.queueReconciliation(ctx, event, category, ctx.Err(), attempt, reconRepo)
			case <-time.After(b.retryDelay):
			}
		}
	}

	return b.queueReconciliation(ctx, event, category, lastErr, b.maxAttempts, reconRepo)
}

// Resubmit makes a single submission attempt for an entry that was
// previously deferred to reconciliation. The retry budget does not apply
// here; the caller owns pacing across sweeps.
func (b *EntryBooker) Resubmit(ctx context.Context, event *inventory.ReplenishmentEvent, category bookkeeping.EntryCategory, memo string) (string, error) {
	entry, err := bookkeeping.NewEntry(event.ID, category, valueobject.NewMoneyUSD(event.BatchCost), event.OccurredOn, memo)
	if err != nil {
		return "", err
	}

	entryID, err := b.gateway.Record(ctx, entry)
	if err != nil {
		return "", err
	}

	b.markBooked(ctx, event)
	return entryID, nil
}

func (b *EntryBooker) queueReconciliation(ctx context.Context, event *inventory.ReplenishmentEvent, category bookkeeping.EntryCategory, cause error, attempts int, reconRepo bookkeeping.ReconciliationTaskRepository) error {
	code := shared.CodeGatewayUnavailable
	var de *shared.DomainError
	if errors.As(cause, &de) {
		code = de.Code
	}

	detail := ""
	if cause != nil {
		detail = cause.Error()
	}

	task, err := bookkeeping.NewReconciliationTask(event.ID, event.PONumber, category, event.BatchCost, code, detail, attempts)
	if err != nil {
		return fmt.Errorf("building reconciliation task for event %s: %w", event.ID, err)
	}
	if err := reconRepo.Create(ctx, task); err != nil {
		return fmt.Errorf("persisting reconciliation task for event %s: %w", event.ID, err)
	}

	b.logger.Error("bookkeeping entry deferred to reconciliation",
		zap.String("event_id", event.ID.String()),
		zap.String("failure_code", code),
		zap.Int("attempts", attempts))

	return nil
}

func (b *EntryBooker) alreadyBooked(ctx context.Context, event *inventory.ReplenishmentEvent) bool {
	if b.idempotency == nil || !b.idemConfig.Enabled {
		return false
	}
	processed, err := b.idempotency.IsProcessed(ctx, bookingKey(event))
	if err != nil {
		return false
	}
	return processed
}

func (b *EntryBooker) markBooked(ctx context.Context, event *inventory.ReplenishmentEvent) {
	if b.idempotency == nil || !b.idemConfig.Enabled {
		return
	}
	if _, err := b.idempotency.MarkProcessed(ctx, bookingKey(event), b.idemConfig.TTL); err != nil {
		b.logger.Warn("failed to mark bookkeeping entry processed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
	}
}

func bookingKey(event *inventory.ReplenishmentEvent) string {
	return "bookkeeping:entry:" + event.ID.String()
}
