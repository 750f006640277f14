// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormLedgerMetricsProvider implements LedgerMetricsProvider using GORM.
// It queries the ledger tables directly for aggregated metrics.
type GormLedgerMetricsProvider struct {
	db *gorm.DB
}

// NewGormLedgerMetricsProvider creates a new GormLedgerMetricsProvider.
func NewGormLedgerMetricsProvider(db *gorm.DB) *GormLedgerMetricsProvider {
	return &GormLedgerMetricsProvider{db: db}
}

// CountPendingReconciliations returns the reconciliation queue depth.
func (p *GormLedgerMetricsProvider) CountPendingReconciliations(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("reconciliation_tasks").
		Where("status = ?", "PENDING").
		Count(&count).Error

	return count, err
}

// CountLowStockItems returns the number of items at or below their reorder point.
func (p *GormLedgerMetricsProvider) CountLowStockItems(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("inventory_items").
		Where("reorder_point > 0 AND quantity <= reorder_point").
		Count(&count).Error

	return count, err
}

var _ LedgerMetricsProvider = (*GormLedgerMetricsProvider)(nil)
