package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/backoffice/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReconciliationRetrier re-attempts pending reconciliation tasks
type ReconciliationRetrier interface {
	RetryPendingReconciliations(ctx context.Context, limit int) (int, error)
}

// SweeperConfig holds configuration for the reconciliation sweeper
type SweeperConfig struct {
	// Interval is how often the sweeper scans for pending tasks
	Interval time.Duration
	// BatchSize caps the number of tasks re-attempted per sweep
	BatchSize int
}

// DefaultSweeperConfig returns default sweeper configuration
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:  5 * time.Minute,
		BatchSize: 20,
	}
}

// ReconciliationSweeper periodically retries bookkeeping submissions that
// were deferred to the reconciliation queue by a gateway outage. Stock has
// already committed for these tasks; the sweeper only chases the missing
// entries.
type ReconciliationSweeper struct {
	config  SweeperConfig
	retrier ReconciliationRetrier
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewReconciliationSweeper creates a new reconciliation sweeper
func NewReconciliationSweeper(config SweeperConfig, retrier ReconciliationRetrier, logger *zap.Logger) *ReconciliationSweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultSweeperConfig().Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSweeperConfig().BatchSize
	}
	return &ReconciliationSweeper{
		config:  config,
		retrier: retrier,
		logger:  logger,
	}
}

// Start starts the sweeper
func (s *ReconciliationSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Reconciliation sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
	)

	return nil
}

// Stop stops the sweeper
func (s *ReconciliationSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconciliation sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop retries pending tasks on every tick
func (s *ReconciliationSweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one retry pass, labelled so sweep CPU time is separable
// from request handling in profiles.
func (s *ReconciliationSweeper) sweep(ctx context.Context) {
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("reconciliation_sweep", nil), func(ctx context.Context) {
		resolved, err := s.retrier.RetryPendingReconciliations(ctx, s.config.BatchSize)
		if err != nil {
			s.logger.Error("Reconciliation sweep failed", zap.Error(err))
			return
		}
		if resolved > 0 {
			s.logger.Info("Reconciliation sweep resolved deferred entries",
				zap.Int("resolved", resolved),
			)
		}
	})
}
