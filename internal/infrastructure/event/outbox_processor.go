package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backoffice/backend/internal/domain/shared"
)

type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// OutboxProcessor relays committed outbox entries to the in-process event
// bus. Pending entries are drained oldest first, failed ones are retried
// on their backoff schedule, and sent entries past the retention window
// are swept out.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	eventBus   shared.EventBus
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOutboxProcessor(repo shared.OutboxRepository, eventBus shared.EventBus, serializer *EventSerializer, config OutboxProcessorConfig, logger *zap.Logger) *OutboxProcessor {
	return &OutboxProcessor{
		repo:       repo,
		eventBus:   eventBus,
		serializer: serializer,
		config:     config,
		logger:     logger,
	}
}

// Start launches the relay and cleanup loops. The first drain runs
// immediately so entries committed before startup are not left waiting
// a full poll interval.
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	p.spawn(ctx, p.config.PollInterval, true, p.drain)
	if p.config.CleanupEnabled {
		p.spawn(ctx, p.config.CleanupInterval, false, p.sweepSent)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop cancels the loops and waits for in-flight batches, bounded by ctx.
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn runs fn on every tick until ctx is cancelled.
func (p *OutboxProcessor) spawn(ctx context.Context, interval time.Duration, immediate bool, fn func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if immediate {
			fn(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// drain relays one batch of pending entries, then one batch whose retry
// backoff has elapsed.
func (p *OutboxProcessor) drain(ctx context.Context) {
	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("fetch pending outbox entries failed", zap.Error(err))
		return
	}
	p.relay(ctx, pending)

	retryable, err := p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("fetch retryable outbox entries failed", zap.Error(err))
		return
	}
	p.relay(ctx, retryable)
}

// relay claims the entries and attempts each one. Claiming goes through
// MarkProcessing so two relays sharing a database never deliver the same
// entry.
func (p *OutboxProcessor) relay(ctx context.Context, entries []*shared.OutboxEntry) {
	if len(entries) == 0 {
		return
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("claim outbox entries failed", zap.Error(err))
		return
	}

	for _, entry := range claimed {
		p.attempt(ctx, entry)
	}
}

func (p *OutboxProcessor) attempt(ctx context.Context, entry *shared.OutboxEntry) {
	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		p.recordFailure(ctx, entry, "deserialize outbox payload failed", err)
		return
	}

	if err := p.eventBus.Publish(ctx, event); err != nil {
		p.recordFailure(ctx, entry, "publish outbox event failed", err)
		return
	}

	entry.MarkSent()
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("mark outbox entry sent failed",
			append(entryFields(entry), zap.Error(err))...)
		return
	}
	p.logger.Debug("outbox entry delivered", entryFields(entry)...)
}

func (p *OutboxProcessor) recordFailure(ctx context.Context, entry *shared.OutboxEntry, msg string, cause error) {
	p.logger.Error(msg, append(entryFields(entry), zap.Error(cause))...)

	entry.MarkFailed(cause.Error())
	if entry.IsDead() {
		p.logger.Warn("outbox entry moved to dead letter queue",
			append(entryFields(entry),
				zap.String("aggregate_type", entry.AggregateType),
				zap.String("aggregate_id", entry.AggregateID.String()),
				zap.Int("retry_count", entry.RetryCount),
				zap.String("last_error", entry.LastError),
			)...)
	}
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("update outbox entry failed", zap.Error(err))
	}
}

// sweepSent deletes sent entries older than the retention window.
func (p *OutboxProcessor) sweepSent(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("sweep sent outbox entries failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("swept sent outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}

func entryFields(entry *shared.OutboxEntry) []zap.Field {
	return []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
	}
}
