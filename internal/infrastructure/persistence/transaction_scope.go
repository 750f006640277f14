package persistence

import (
	"context"

	invapp "github.com/backoffice/backend/internal/application/inventory"
	procapp "github.com/backoffice/backend/internal/application/procurement"
	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/procurement"
	"github.com/backoffice/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope executes ledger mutations within a database
// transaction. Every repository handed to the callback is bound to the
// same *gorm.DB transaction, so the item row, its replenishment events
// and any queued reconciliation task commit or roll back together.
type GormTransactionScope struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// SetOutboxEventSaver makes transaction-bound repositories save aggregate
// events to the outbox within the same transaction as the data change
func (s *GormTransactionScope) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	s.outboxSaver = saver
}

// Execute runs the function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos invapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTxRepositories{tx: tx, outboxSaver: s.outboxSaver})
	})
}

// gormTxRepositories provides repositories bound to a single transaction
type gormTxRepositories struct {
	tx          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

func (r *gormTxRepositories) ItemRepo() inventory.InventoryItemRepository {
	repo := NewGormInventoryItemRepository(r.tx)
	repo.SetOutboxEventSaver(r.outboxSaver)
	return repo
}

func (r *gormTxRepositories) ReplenishmentRepo() inventory.ReplenishmentEventRepository {
	return NewGormReplenishmentEventRepository(r.tx)
}

func (r *gormTxRepositories) ReconciliationRepo() bookkeeping.ReconciliationTaskRepository {
	return NewGormReconciliationTaskRepository(r.tx)
}

// GormProcurementTransactionScope executes purchase-order mutations within
// a database transaction. Receiving an order writes the order row, the
// referenced item rows, the replenishment log and possibly the
// reconciliation queue in one unit.
type GormProcurementTransactionScope struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormProcurementTransactionScope creates a new GormProcurementTransactionScope
func NewGormProcurementTransactionScope(db *gorm.DB) *GormProcurementTransactionScope {
	return &GormProcurementTransactionScope{db: db}
}

// SetOutboxEventSaver makes transaction-bound repositories save aggregate
// events to the outbox within the same transaction as the data change
func (s *GormProcurementTransactionScope) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	s.outboxSaver = saver
}

// Execute runs the function within a database transaction
func (s *GormProcurementTransactionScope) Execute(ctx context.Context, fn func(repos procapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormProcurementTxRepositories{gormTxRepositories{tx: tx, outboxSaver: s.outboxSaver}})
	})
}

// gormProcurementTxRepositories extends the ledger repositories with the
// purchase order repository, all bound to one transaction
type gormProcurementTxRepositories struct {
	gormTxRepositories
}

func (r *gormProcurementTxRepositories) OrderRepo() procurement.PurchaseOrderRepository {
	repo := NewGormPurchaseOrderRepository(r.tx)
	repo.SetOutboxEventSaver(r.outboxSaver)
	return repo
}

var (
	_ invapp.TransactionScope  = (*GormTransactionScope)(nil)
	_ procapp.TransactionScope = (*GormProcurementTransactionScope)(nil)
)
