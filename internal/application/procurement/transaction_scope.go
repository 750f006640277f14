package procurement

import (
	"context"

	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/procurement"
)

// TransactionScope provides transactional access to the repositories the
// purchase-order lifecycle touches. Receiving an order mutates the order
// row, every referenced item row, the replenishment log and possibly the
// reconciliation queue; they must commit or roll back as one unit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories the
// receiving flow writes, sharing one underlying transaction.
type TransactionalRepositories interface {
	// OrderRepo returns the purchase order repository scoped to the current transaction
	OrderRepo() procurement.PurchaseOrderRepository
	// ItemRepo returns the inventory item repository scoped to the current transaction
	ItemRepo() inventory.InventoryItemRepository
	// ReplenishmentRepo returns the replenishment event repository scoped to the current transaction
	ReplenishmentRepo() inventory.ReplenishmentEventRepository
	// ReconciliationRepo returns the reconciliation task repository scoped to the current transaction
	ReconciliationRepo() bookkeeping.ReconciliationTaskRepository
}

// NoOpTransactionScope is a transaction scope without real transactions,
// for tests.
type NoOpTransactionScope struct {
	orderRepo         procurement.PurchaseOrderRepository
	itemRepo          inventory.InventoryItemRepository
	replenishmentRepo inventory.ReplenishmentEventRepository
	reconRepo         bookkeeping.ReconciliationTaskRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	orderRepo procurement.PurchaseOrderRepository,
	itemRepo inventory.InventoryItemRepository,
	replenishmentRepo inventory.ReplenishmentEventRepository,
	reconRepo bookkeeping.ReconciliationTaskRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:         orderRepo,
		itemRepo:          itemRepo,
		replenishmentRepo: replenishmentRepo,
		reconRepo:         reconRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the purchase order repository
func (s *NoOpTransactionScope) OrderRepo() procurement.PurchaseOrderRepository {
	return s.orderRepo
}

// ItemRepo returns the inventory item repository
func (s *NoOpTransactionScope) ItemRepo() inventory.InventoryItemRepository {
	return s.itemRepo
}

// ReplenishmentRepo returns the replenishment event repository
func (s *NoOpTransactionScope) ReplenishmentRepo() inventory.ReplenishmentEventRepository {
	return s.replenishmentRepo
}

// ReconciliationRepo returns the reconciliation task repository
func (s *NoOpTransactionScope) ReconciliationRepo() bookkeeping.ReconciliationTaskRepository {
	return s.reconRepo
}
