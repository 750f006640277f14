package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/procurement"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/marketplace"
	"github.com/google/uuid"
)

// In-memory repository mocks shared by the handler tests. They implement
// just enough of the repository contracts to drive the real application
// services behind the handlers.

type mockItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]inventory.InventoryItem
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[uuid.UUID]inventory.InventoryItem)}
}

func (r *mockItemRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	item := stored
	return &item, nil
}

func (r *mockItemRepo) FindBySKU(_ context.Context, sku string) (*inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.items {
		if stored.SKU == sku {
			item := stored
			return &item, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *mockItemRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]inventory.InventoryItem, 0, len(r.items))
	for _, stored := range r.items {
		items = append(items, stored)
	}
	return items, nil
}

func (r *mockItemRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]inventory.InventoryItem, 0, len(ids))
	for _, id := range ids {
		if stored, ok := r.items[id]; ok {
			items = append(items, stored)
		}
	}
	return items, nil
}

func (r *mockItemRepo) FindBelowReorderPoint(_ context.Context, _ shared.Filter) ([]inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]inventory.InventoryItem, 0)
	for _, stored := range r.items {
		if stored.IsBelowReorderPoint() {
			items = append(items, stored)
		}
	}
	return items, nil
}

func (r *mockItemRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *mockItemRepo) Create(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *mockItemRepo) Save(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *mockItemRepo) SaveWithLock(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return shared.ErrNotFound
	}
	r.items[item.ID] = *item
	return nil
}

func (r *mockItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type mockReplenishmentRepo struct {
	mu     sync.Mutex
	events []inventory.ReplenishmentEvent
}

func newMockReplenishmentRepo() *mockReplenishmentRepo {
	return &mockReplenishmentRepo{}
}

func (r *mockReplenishmentRepo) Create(_ context.Context, event *inventory.ReplenishmentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *mockReplenishmentRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.ReplenishmentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.events {
		if stored.ID == id {
			event := stored
			return &event, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *mockReplenishmentRepo) FindByItem(_ context.Context, itemID uuid.UUID, _ shared.Filter) ([]inventory.ReplenishmentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]inventory.ReplenishmentEvent, 0)
	for _, stored := range r.events {
		if stored.InventoryItemID == itemID {
			events = append(events, stored)
		}
	}
	return events, nil
}

func (r *mockReplenishmentRepo) FindByPurchaseOrderItem(_ context.Context, poItemID uuid.UUID) ([]inventory.ReplenishmentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]inventory.ReplenishmentEvent, 0)
	for _, stored := range r.events {
		if stored.SourcePOItemID != nil && *stored.SourcePOItemID == poItemID {
			events = append(events, stored)
		}
	}
	return events, nil
}

func (r *mockReplenishmentRepo) CountByItem(_ context.Context, itemID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, stored := range r.events {
		if stored.InventoryItemID == itemID {
			count++
		}
	}
	return count, nil
}

func (r *mockReplenishmentRepo) SetBookkeepingEntry(_ context.Context, eventID uuid.UUID, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx := range r.events {
		if r.events[idx].ID == eventID {
			if r.events[idx].BookkeepingEntryID != nil {
				return shared.NewDomainError(shared.CodeInvalidEntry, "Event already has a bookkeeping entry")
			}
			r.events[idx].BookkeepingEntryID = &entryID
			return nil
		}
	}
	return shared.ErrNotFound
}

type mockReconciliationRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]bookkeeping.ReconciliationTask
}

func newMockReconciliationRepo() *mockReconciliationRepo {
	return &mockReconciliationRepo{tasks: make(map[uuid.UUID]bookkeeping.ReconciliationTask)}
}

func (r *mockReconciliationRepo) FindByID(_ context.Context, id uuid.UUID) (*bookkeeping.ReconciliationTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tasks[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	task := stored
	return &task, nil
}

func (r *mockReconciliationRepo) FindByReplenishmentEvent(_ context.Context, eventID uuid.UUID) (*bookkeeping.ReconciliationTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.tasks {
		if stored.ReplenishmentEventID == eventID {
			task := stored
			return &task, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *mockReconciliationRepo) FindPending(_ context.Context, _ shared.Filter) ([]bookkeeping.ReconciliationTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]bookkeeping.ReconciliationTask, 0)
	for _, stored := range r.tasks {
		if stored.Status == bookkeeping.ReconciliationStatusPending {
			tasks = append(tasks, stored)
		}
	}
	return tasks, nil
}

func (r *mockReconciliationRepo) CountPending(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, stored := range r.tasks {
		if stored.Status == bookkeeping.ReconciliationStatusPending {
			count++
		}
	}
	return count, nil
}

func (r *mockReconciliationRepo) Create(_ context.Context, task *bookkeeping.ReconciliationTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = *task
	return nil
}

func (r *mockReconciliationRepo) Save(_ context.Context, task *bookkeeping.ReconciliationTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = *task
	return nil
}

type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]procurement.PurchaseOrder
	seq    int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]procurement.PurchaseOrder)}
}

func (r *mockOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	order := stored
	return &order, nil
}

func (r *mockOrderRepo) FindByNumber(_ context.Context, poNumber string) (*procurement.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.orders {
		if stored.PONumber == poNumber {
			order := stored
			return &order, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *mockOrderRepo) FindAll(_ context.Context, _ shared.Filter) ([]procurement.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]procurement.PurchaseOrder, 0, len(r.orders))
	for _, stored := range r.orders {
		orders = append(orders, stored)
	}
	return orders, nil
}

func (r *mockOrderRepo) FindByStatus(_ context.Context, status procurement.PurchaseOrderStatus, _ shared.Filter) ([]procurement.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]procurement.PurchaseOrder, 0)
	for _, stored := range r.orders {
		if stored.Status == status {
			orders = append(orders, stored)
		}
	}
	return orders, nil
}

func (r *mockOrderRepo) FindOpenByPackagingItem(_ context.Context, packagingItemID uuid.UUID) ([]procurement.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]procurement.PurchaseOrder, 0)
	for _, stored := range r.orders {
		if stored.Status.IsTerminal() {
			continue
		}
		for _, line := range stored.Items {
			if line.PackagingItemID == packagingItemID {
				orders = append(orders, stored)
				break
			}
		}
	}
	return orders, nil
}

func (r *mockOrderRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

func (r *mockOrderRepo) GeneratePONumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("PO-202608-%04d", r.seq), nil
}

func (r *mockOrderRepo) Create(_ context.Context, order *procurement.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *mockOrderRepo) Save(_ context.Context, order *procurement.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *mockOrderRepo) SaveWithLock(_ context.Context, order *procurement.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return shared.ErrNotFound
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *mockOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// mockOrderSource serves canned marketplace orders or a fixed error.
type mockOrderSource struct {
	orders []marketplace.Order
	err    error
}

func (s *mockOrderSource) FetchOrders(_ context.Context, _, _ int) ([]marketplace.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.orders, nil
}

var (
	_ inventory.InventoryItemRepository      = (*mockItemRepo)(nil)
	_ inventory.ReplenishmentEventRepository = (*mockReplenishmentRepo)(nil)
	_ bookkeeping.ReconciliationTaskRepository = (*mockReconciliationRepo)(nil)
	_ procurement.PurchaseOrderRepository    = (*mockOrderRepo)(nil)
	_ marketplace.OrderSource                = (*mockOrderSource)(nil)
)
