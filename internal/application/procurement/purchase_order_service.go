package procurement

import (
	"context"
	"errors"
	"sort"
	"time"

	invapp "github.com/backoffice/backend/internal/application/inventory"
	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/procurement"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PurchaseOrderService drives the purchase-order lifecycle. Receiving is
// the critical path: for every line item it credits the ledger, appends a
// replenishment event and submits a bookkeeping entry, all inside one
// transaction guarded by the order's ReceivedSideEffectsApplied flag, so
// repeated or concurrent receive requests apply the side effects exactly
// once.
type PurchaseOrderService struct {
	scope          TransactionScope
	ledger         *invapp.LedgerService
	booker         *invapp.EntryBooker
	eventPublisher shared.EventPublisher
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(scope TransactionScope, ledger *invapp.LedgerService, booker *invapp.EntryBooker) *PurchaseOrderService {
	return &PurchaseOrderService{
		scope:  scope,
		ledger: ledger,
		booker: booker,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PurchaseOrderService) publishDomainEvents(ctx context.Context, order *procurement.PurchaseOrder) {
	if s.eventPublisher == nil {
		return
	}
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	order.ClearDomainEvents()
}

// poNumberAttempts bounds the regenerate-and-retry loop when two creates
// race for the same monthly sequence number.
const poNumberAttempts = 3

// Create creates a new purchase order with a generated PO number
func (s *PurchaseOrderService) Create(ctx context.Context, req CreateOrderRequest) (*PurchaseOrderResponse, error) {
	orderDate := time.Now()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	var order *procurement.PurchaseOrder
	var err error
	for attempt := 1; attempt <= poNumberAttempts; attempt++ {
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			poNumber, err := repos.OrderRepo().GeneratePONumber(ctx)
			if err != nil {
				return err
			}

			order, err = procurement.NewPurchaseOrder(poNumber, req.Supplier, orderDate)
			if err != nil {
				return err
			}
			if req.ExpectedDelivery != nil {
				if err := order.SetExpectedDelivery(*req.ExpectedDelivery); err != nil {
					return err
				}
			}
			if req.Notes != "" {
				order.SetNotes(req.Notes)
			}

			for _, line := range req.Items {
				if err := s.addLine(ctx, repos, order, AddItemRequest(line)); err != nil {
					return err
				}
			}

			return repos.OrderRepo().Create(ctx, order)
		})
		// A concurrent create won the number; rerun with the next one
		if !errors.Is(err, shared.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, order)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// addLine validates the packaging item and appends it as a line item
func (s *PurchaseOrderService) addLine(ctx context.Context, repos TransactionalRepositories, order *procurement.PurchaseOrder, req AddItemRequest) error {
	item, err := repos.ItemRepo().FindByID(ctx, req.PackagingItemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrUnknownItem
		}
		return err
	}
	if item.Kind != inventory.ItemKindPackaging {
		return shared.NewDomainError("INVALID_KIND", "Purchase order lines must reference packaging materials")
	}

	line, err := order.AddItem(item.ID, item.Name, item.SKU, req.Quantity, valueobject.NewMoneyUSD(req.UnitCost))
	if err != nil {
		return err
	}
	if req.SupplierOverride != "" {
		order.GetItem(line.ID).SetSupplierOverride(req.SupplierOverride)
	}
	if req.Notes != "" {
		order.GetItem(line.ID).SetNotes(req.Notes)
	}
	return nil
}

// Get retrieves an order by ID
func (s *PurchaseOrderService) Get(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	var response *PurchaseOrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		r := ToPurchaseOrderResponse(order)
		response = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GetByNumber retrieves an order by PO number
func (s *PurchaseOrderService) GetByNumber(ctx context.Context, poNumber string) (*PurchaseOrderResponse, error) {
	var response *PurchaseOrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByNumber(ctx, poNumber)
		if err != nil {
			return err
		}
		r := ToPurchaseOrderResponse(order)
		response = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// List retrieves orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, filter OrderListFilter) ([]PurchaseOrderResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Supplier != "" {
		domainFilter.Filters["supplier"] = filter.Supplier
	}

	var (
		responses []PurchaseOrderResponse
		total     int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var (
			orders []procurement.PurchaseOrder
			err    error
		)
		if filter.Status != "" {
			orders, err = repos.OrderRepo().FindByStatus(ctx, procurement.PurchaseOrderStatus(filter.Status), domainFilter)
		} else {
			orders, err = repos.OrderRepo().FindAll(ctx, domainFilter)
		}
		if err != nil {
			return err
		}
		total, err = repos.OrderRepo().Count(ctx, domainFilter)
		if err != nil {
			return err
		}
		responses = ToPurchaseOrderResponses(orders)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// AddItem adds a line item to an order
func (s *PurchaseOrderService) AddItem(ctx context.Context, orderID uuid.UUID, req AddItemRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, orderID, func(repos TransactionalRepositories, order *procurement.PurchaseOrder) error {
		return s.addLine(ctx, repos, order, req)
	})
}

// UpdateItem edits a line item's quantity, cost or notes
func (s *PurchaseOrderService) UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, req UpdateItemRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, order *procurement.PurchaseOrder) error {
		if req.Quantity != nil {
			if err := order.UpdateItemQuantity(itemID, *req.Quantity); err != nil {
				return err
			}
		}
		if req.UnitCost != nil {
			if err := order.UpdateItemCost(itemID, valueobject.NewMoneyUSD(*req.UnitCost)); err != nil {
				return err
			}
		}
		if req.Notes != nil {
			line := order.GetItem(itemID)
			if line == nil {
				return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
			}
			line.SetNotes(*req.Notes)
		}
		return nil
	})
}

// RemoveItem removes a line item from an order
func (s *PurchaseOrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, order *procurement.PurchaseOrder) error {
		return order.RemoveItem(itemID)
	})
}

// Cancel cancels an order with a reason
func (s *PurchaseOrderService) Cancel(ctx context.Context, orderID uuid.UUID, req CancelOrderRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, order *procurement.PurchaseOrder) error {
		return order.Cancel(req.Reason)
	})
}

// AdvanceStatus moves an order to the requested status. RECEIVED runs the
// full receiving orchestration; a repeat request for an order whose side
// effects are already applied succeeds without changing anything.
func (s *PurchaseOrderService) AdvanceStatus(ctx context.Context, orderID uuid.UUID, req AdvanceStatusRequest) (*PurchaseOrderResponse, error) {
	target := procurement.PurchaseOrderStatus(req.Status)
	if !target.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition, "Unknown target status")
	}

	if target == procurement.PurchaseOrderStatusReceived {
		return s.receive(ctx, orderID)
	}

	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, order *procurement.PurchaseOrder) error {
		switch target {
		case procurement.PurchaseOrderStatusConfirmed:
			return order.Confirm()
		case procurement.PurchaseOrderStatusShipped:
			return order.MarkShipped()
		case procurement.PurchaseOrderStatusCompleted:
			return order.Complete()
		default:
			return shared.NewDomainError(shared.CodeInvalidTransition, "Unsupported target status")
		}
	})
}

// mutate loads an order, applies fn and saves with optimistic locking
func (s *PurchaseOrderService) mutate(ctx context.Context, orderID uuid.UUID, fn func(repos TransactionalRepositories, order *procurement.PurchaseOrder) error) (*PurchaseOrderResponse, error) {
	var order *procurement.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(repos, order); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, order)

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// receive applies the received side effects exactly once: per-line ledger
// credit, replenishment event, bookkeeping entry, packaging reactivation,
// then the order's own state change, all in one transaction.
func (s *PurchaseOrderService) receive(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	// Item locks are taken in sorted order so two orders sharing packaging
	// items cannot deadlock, and before the transaction so ledger credits
	// for these items cannot interleave with ours.
	unlockAll, err := s.lockOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlockAll()

	var (
		order         *procurement.PurchaseOrder
		creditedItems []*inventory.InventoryItem
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		// Already received: the guard makes a repeat request a no-op
		if order.ReceivedSideEffectsApplied {
			return nil
		}

		receivedAt := time.Now()
		if err := order.MarkReceived(receivedAt); err != nil {
			return err
		}

		for idx := range order.Items {
			line := &order.Items[idx]

			item, err := s.ledger.CreditInScope(ctx, repos, line.PackagingItemID, line.Quantity, line.UnitCost)
			if err != nil {
				return err
			}

			event, err := inventory.NewReplenishmentEvent(
				item.ID, line.Quantity, line.TotalCost,
				item.Quantity-line.Quantity, item.Quantity, item.UnitCost,
				inventory.SourcePurchaseOrder, receivedAt,
			)
			if err != nil {
				return err
			}
			event.WithPurchaseOrderItem(line.ID, order.PONumber)

			if s.booker != nil {
				if err := s.booker.Book(ctx, event, bookkeeping.CategoryPackagingMaterials, "Received "+order.PONumber+" "+line.PackagingSKU, repos.ReconciliationRepo()); err != nil {
					return err
				}
			}
			if err := repos.ReplenishmentRepo().Create(ctx, event); err != nil {
				return err
			}

			// Receiving stock brings a hidden packaging item back
			if item.Inactive {
				item.Activate()
				if err := repos.ItemRepo().SaveWithLock(ctx, item); err != nil {
					return err
				}
			}

			creditedItems = append(creditedItems, item)
		}

		return repos.OrderRepo().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, order)
	for _, item := range creditedItems {
		s.ledger.PublishEvents(ctx, item)
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// lockOrderItems acquires the ledger lock of every item on the order
func (s *PurchaseOrderService) lockOrderItems(ctx context.Context, orderID uuid.UUID) (func(), error) {
	var itemIDs []uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		for _, line := range order.Items {
			itemIDs = append(itemIDs, line.PackagingItemID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(itemIDs, func(i, j int) bool {
		return itemIDs[i].String() < itemIDs[j].String()
	})

	unlocks := make([]func(), 0, len(itemIDs))
	for _, id := range itemIDs {
		unlocks = append(unlocks, s.ledger.AcquireItemLock(id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}, nil
}
