package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks replenishment activity, purchase-order
// throughput, and the health of the bookkeeping reconciliation queue.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	replenishmentTotal     *Counter
	replenishmentQuantity  *Counter
	purchaseOrderTotal     *Counter
	bookkeepingEntryTotal  *Counter
	reconciliationQueued   *Counter
	reconciliationResolved *Counter

	purchaseOrderCycleDays *Histogram

	reconciliationPending *Gauge
	lowStockItems         *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	ledgerProvider LedgerMetricsProvider
}

// LedgerMetricsProvider supplies the ledger counts sampled by periodic
// collection. The interface keeps the telemetry layer from depending
// on the domain repositories directly.
type LedgerMetricsProvider interface {
	// CountPendingReconciliations returns the reconciliation queue depth
	CountPendingReconciliations(ctx context.Context) (int64, error)

	// CountLowStockItems returns the number of items at or below their reorder point
	CountLowStockItems(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // default 5 minutes
	LedgerProvider  LedgerMetricsProvider
}

// NewBusinessMetrics registers the ledger's business instruments on
// the given meter.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		ledgerProvider: cfg.LedgerProvider,
	}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&bm.replenishmentTotal, "ledger_replenishment_total", "Total number of replenishment events recorded", "{events}"},
		{&bm.replenishmentQuantity, "ledger_replenishment_quantity_total", "Total units credited across all replenishments", "{units}"},
		{&bm.purchaseOrderTotal, "ledger_purchase_order_total", "Total number of purchase orders by terminal status", "{orders}"},
		{&bm.bookkeepingEntryTotal, "ledger_bookkeeping_entry_total", "Total bookkeeping entry submissions by outcome", "{entries}"},
		{&bm.reconciliationQueued, "ledger_reconciliation_queued_total", "Total reconciliation tasks queued after exhausted retries", "{tasks}"},
		{&bm.reconciliationResolved, "ledger_reconciliation_resolved_total", "Total reconciliation tasks resolved", "{tasks}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	bm.purchaseOrderCycleDays, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "ledger_purchase_order_cycle_days",
		Description: "Days from order placement to receipt",
		Unit:        "d",
		Boundaries:  []float64{1, 3, 7, 14, 30, 60, 90},
	})
	if err != nil {
		return nil, err
	}

	gauges := []struct {
		dst              **Gauge
		name, desc, unit string
	}{
		{&bm.reconciliationPending, "ledger_reconciliation_pending", "Current reconciliation queue depth", "{tasks}"},
		{&bm.lowStockItems, "ledger_low_stock_items", "Number of items at or below their reorder point", "{items}"},
	}
	for _, g := range gauges {
		gauge, err := NewGauge(cfg.Meter, g.name, g.desc, g.unit)
		if err != nil {
			return nil, err
		}
		*g.dst = gauge
	}

	return bm, nil
}

// RecordReplenishment records a replenishment event with its source
// (MANUAL or PURCHASE_ORDER) and credited quantity.
func (bm *BusinessMetrics) RecordReplenishment(ctx context.Context, source string, quantity int64) {
	bm.replenishmentTotal.Inc(ctx, AttrReplenishmentSource.String(source))
	bm.replenishmentQuantity.Add(ctx, quantity, AttrReplenishmentSource.String(source))
}

// RecordPurchaseOrderStatus records a purchase order reaching a status.
func (bm *BusinessMetrics) RecordPurchaseOrderStatus(ctx context.Context, status string) {
	bm.purchaseOrderTotal.Inc(ctx, AttrOrderStatus.String(status))
}

// RecordPurchaseOrderCycle records the order-to-receipt cycle time.
// Receipts timestamped before their order date are ignored rather than
// recorded as negative days.
func (bm *BusinessMetrics) RecordPurchaseOrderCycle(ctx context.Context, orderDate, receivedAt time.Time) {
	if receivedAt.Before(orderDate) {
		return
	}
	days := decimal.NewFromFloat(receivedAt.Sub(orderDate).Hours() / 24).Round(2)
	cycleDays, _ := days.Float64()
	bm.purchaseOrderCycleDays.Record(ctx, cycleDays)
}

// BookkeepingOutcome labels the result of an entry submission.
type BookkeepingOutcome string

const (
	BookkeepingOutcomeRecorded   BookkeepingOutcome = "recorded"
	BookkeepingOutcomeReconciled BookkeepingOutcome = "queued_for_reconciliation"
)

// RecordBookkeepingEntry records an entry submission outcome. A
// reconciled outcome also counts toward the queued-task total.
func (bm *BusinessMetrics) RecordBookkeepingEntry(ctx context.Context, outcome BookkeepingOutcome) {
	bm.bookkeepingEntryTotal.Inc(ctx, AttrEntryOutcome.String(string(outcome)))
	if outcome == BookkeepingOutcomeReconciled {
		bm.reconciliationQueued.Inc(ctx)
	}
}

// RecordReconciliationResolved records a reconciliation task being closed.
func (bm *BusinessMetrics) RecordReconciliationResolved(ctx context.Context) {
	bm.reconciliationResolved.Inc(ctx)
}

// StartPeriodicCollection samples the ledger health gauges every
// interval. Non-blocking; use Stop to end collection. Calling it twice
// starts one collector.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// one sample up front so dashboards are not blank until the first tick
	bm.collectLedgerMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("business metrics collection stopped")
			return
		case <-ctx.Done():
			bm.logger.Info("business metrics collection cancelled")
			return
		case <-ticker.C:
			bm.collectLedgerMetrics(ctx)
		}
	}
}

// collectLedgerMetrics samples the gauges. A failed count logs and
// skips that gauge; the other still records.
func (bm *BusinessMetrics) collectLedgerMetrics(ctx context.Context) {
	if bm.ledgerProvider == nil {
		return
	}

	pending, err := bm.ledgerProvider.CountPendingReconciliations(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count pending reconciliations", zap.Error(err))
	} else {
		bm.reconciliationPending.Record(ctx, pending)
	}

	lowStock, err := bm.ledgerProvider.CountLowStockItems(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count low stock items", zap.Error(err))
	} else {
		bm.lowStockItems.Record(ctx, lowStock)
	}
}

// Stop ends periodic collection. Safe to call more than once.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// MetricsError represents an error in metrics operations.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}
