package inventory

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerService owns all quantity and cost-basis mutations of inventory
// items. Credits and debits for the same item are serialized through a
// keyed mutex so the weighted-average recompute never races; the version
// column on the item row backs this up across processes.
type LedgerService struct {
	scope          TransactionScope
	locks          *itemLocks
	eventPublisher shared.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(scope TransactionScope) *LedgerService {
	return &LedgerService{
		scope: scope,
		locks: newItemLocks(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LedgerService) publishDomainEvents(ctx context.Context, item *inventory.InventoryItem) {
	if s.eventPublisher == nil {
		return
	}
	events := item.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	item.ClearDomainEvents()
}

// Credit adds a replenishment batch to an item and recomputes the weighted
// average unit cost. Returns the new balance.
func (s *LedgerService) Credit(ctx context.Context, req CreditRequest) (*LedgerMutationResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Credit quantity must be positive")
	}
	if req.BatchUnitCost.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidCost, "Batch unit cost cannot be negative")
	}

	unlock := s.locks.Acquire(req.ItemID)
	defer unlock()

	var item *inventory.InventoryItem
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		item, err = loadItem(ctx, repos, req.ItemID)
		if err != nil {
			return err
		}
		if err := item.Credit(req.Quantity, valueobject.NewMoneyUSD(req.BatchUnitCost)); err != nil {
			return err
		}
		return repos.ItemRepo().SaveWithLock(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)

	return mutationResponse(item), nil
}

// Debit removes stock from an item. The quantity can never go negative and
// the unit cost is unchanged.
func (s *LedgerService) Debit(ctx context.Context, req DebitRequest) (*LedgerMutationResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Debit quantity must be positive")
	}

	unlock := s.locks.Acquire(req.ItemID)
	defer unlock()

	var item *inventory.InventoryItem
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		item, err = loadItem(ctx, repos, req.ItemID)
		if err != nil {
			return err
		}
		if err := item.Debit(req.Quantity); err != nil {
			return err
		}
		return repos.ItemRepo().SaveWithLock(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, item)

	return mutationResponse(item), nil
}

// CreditInScope applies a credit inside a caller-managed transaction. The
// caller must hold the item lock (AcquireItemLock) and persist any further
// records through the same repos. Used by the replenishment recorder and
// the purchase-order receiving flow.
func (s *LedgerService) CreditInScope(ctx context.Context, repos TransactionalRepositories, itemID uuid.UUID, quantity int64, batchUnitCost decimal.Decimal) (*inventory.InventoryItem, error) {
	item, err := loadItem(ctx, repos, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.Credit(quantity, valueobject.NewMoneyUSD(batchUnitCost)); err != nil {
		return nil, err
	}
	if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// AcquireItemLock serializes external flows (replenishment recording, PO
// receiving) against the ledger's own credits and debits for one item.
func (s *LedgerService) AcquireItemLock(itemID uuid.UUID) func() {
	return s.locks.Acquire(itemID)
}

// PublishEvents publishes an item's buffered domain events after a
// caller-managed transaction commits.
func (s *LedgerService) PublishEvents(ctx context.Context, item *inventory.InventoryItem) {
	s.publishDomainEvents(ctx, item)
}

func loadItem(ctx context.Context, repos TransactionalRepositories, itemID uuid.UUID) (*inventory.InventoryItem, error) {
	item, err := repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownItem
		}
		return nil, err
	}
	return item, nil
}

func mutationResponse(item *inventory.InventoryItem) *LedgerMutationResponse {
	return &LedgerMutationResponse{
		ItemID:      item.ID,
		NewQuantity: item.Quantity,
		NewUnitCost: item.UnitCost,
		StockState:  string(item.StockState()),
	}
}
