package inventory

import (
	"context"

	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories a ledger
// mutation touches, all sharing the same underlying transaction: the item
// row, its append-only replenishment events, and the reconciliation queue
// written when a bookkeeping submission fails. Keeping the three in one
// scope is what makes "stock credited, entry pending" an atomic outcome.
type TransactionalRepositories interface {
	// ItemRepo returns the inventory item repository scoped to the current transaction
	ItemRepo() inventory.InventoryItemRepository
	// ReplenishmentRepo returns the replenishment event repository scoped to the current transaction
	ReplenishmentRepo() inventory.ReplenishmentEventRepository
	// ReconciliationRepo returns the reconciliation task repository scoped to the current transaction
	ReconciliationRepo() bookkeeping.ReconciliationTaskRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests.
type NoOpTransactionScope struct {
	itemRepo          inventory.InventoryItemRepository
	replenishmentRepo inventory.ReplenishmentEventRepository
	reconRepo         bookkeeping.ReconciliationTaskRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	itemRepo inventory.InventoryItemRepository,
	replenishmentRepo inventory.ReplenishmentEventRepository,
	reconRepo bookkeeping.ReconciliationTaskRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		itemRepo:          itemRepo,
		replenishmentRepo: replenishmentRepo,
		reconRepo:         reconRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
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
