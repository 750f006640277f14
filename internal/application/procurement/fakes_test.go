package procurement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/procurement"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// fakeOrderRepo is an in-memory PurchaseOrderRepository with optimistic
// version checking and a monthly PO number sequence.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]procurement.PurchaseOrder
	seq    int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]procurement.PurchaseOrder)}
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	order := stored
	order.Items = append([]procurement.PurchaseOrderItem(nil), stored.Items...)
	return &order, nil
}

func (r *fakeOrderRepo) FindByNumber(_ context.Context, poNumber string) (*procurement.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.orders {
		if stored.PONumber == poNumber {
			order := stored
			order.Items = append([]procurement.PurchaseOrderItem(nil), stored.Items...)
			return &order, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) FindAll(_ context.Context, _ shared.Filter) ([]procurement.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]procurement.PurchaseOrder, 0, len(r.orders))
	for _, stored := range r.orders {
		orders = append(orders, stored)
	}
	return orders, nil
}

func (r *fakeOrderRepo) FindByStatus(_ context.Context, status procurement.PurchaseOrderStatus, _ shared.Filter) ([]procurement.PurchaseOrder, error) {
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

func (r *fakeOrderRepo) FindOpenByPackagingItem(_ context.Context, packagingItemID uuid.UUID) ([]procurement.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]procurement.PurchaseOrder, 0)
	for _, stored := range r.orders {
		if stored.Status.IsTerminal() {
			continue
		}
		for _, item := range stored.Items {
			if item.PackagingItemID == packagingItemID {
				orders = append(orders, stored)
				break
			}
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

func (r *fakeOrderRepo) GeneratePONumber(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("PO-%s-%04d", time.Now().Format("200601"), r.seq), nil
}

func (r *fakeOrderRepo) Create(_ context.Context, order *procurement.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *procurement.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) SaveWithLock(_ context.Context, order *procurement.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if order.GetVersion() <= stored.GetVersion() {
		return shared.ErrConcurrencyConflict
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

// fakeItemRepo is an in-memory InventoryItemRepository with optimistic
// version checking.
type fakeItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]inventory.InventoryItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[uuid.UUID]inventory.InventoryItem)}
}

func (r *fakeItemRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	item := stored
	return &item, nil
}

func (r *fakeItemRepo) FindBySKU(_ context.Context, sku string) (*inventory.InventoryItem, error) {
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

func (r *fakeItemRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]inventory.InventoryItem, 0, len(r.items))
	for _, stored := range r.items {
		items = append(items, stored)
	}
	return items, nil
}

func (r *fakeItemRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
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

func (r *fakeItemRepo) FindBelowReorderPoint(_ context.Context, _ shared.Filter) ([]inventory.InventoryItem, error) {
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

func (r *fakeItemRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *fakeItemRepo) Create(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *fakeItemRepo) Save(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = *item
	return nil
}

func (r *fakeItemRepo) SaveWithLock(_ context.Context, item *inventory.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[item.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if item.GetVersion() <= stored.GetVersion() {
		return shared.ErrConcurrencyConflict
	}
	r.items[item.ID] = *item
	return nil
}

func (r *fakeItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// fakeReplenishmentRepo is an in-memory append-only event store
type fakeReplenishmentRepo struct {
	mu     sync.Mutex
	events []inventory.ReplenishmentEvent
}

func newFakeReplenishmentRepo() *fakeReplenishmentRepo {
	return &fakeReplenishmentRepo{}
}

func (r *fakeReplenishmentRepo) Create(_ context.Context, event *inventory.ReplenishmentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeReplenishmentRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.ReplenishmentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx := range r.events {
		if r.events[idx].ID == id {
			event := r.events[idx]
			return &event, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeReplenishmentRepo) FindByItem(_ context.Context, itemID uuid.UUID, _ shared.Filter) ([]inventory.ReplenishmentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]inventory.ReplenishmentEvent, 0)
	for _, event := range r.events {
		if event.InventoryItemID == itemID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (r *fakeReplenishmentRepo) FindByPurchaseOrderItem(_ context.Context, poItemID uuid.UUID) ([]inventory.ReplenishmentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]inventory.ReplenishmentEvent, 0)
	for _, event := range r.events {
		if event.SourcePOItemID != nil && *event.SourcePOItemID == poItemID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (r *fakeReplenishmentRepo) CountByItem(_ context.Context, itemID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, event := range r.events {
		if event.InventoryItemID == itemID {
			count++
		}
	}
	return count, nil
}

func (r *fakeReplenishmentRepo) SetBookkeepingEntry(_ context.Context, eventID uuid.UUID, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx := range r.events {
		if r.events[idx].ID == eventID {
			r.events[idx].BookkeepingEntryID = &entryID
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *fakeReplenishmentRepo) all() []inventory.ReplenishmentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]inventory.ReplenishmentEvent, len(r.events))
	copy(events, r.events)
	return events
}

// fakeReconciliationRepo is an in-memory ReconciliationTaskRepository
type fakeReconciliationRepo struct {
	mu    sync.Mutex
	tasks []bookkeeping.ReconciliationTask
}

func newFakeReconciliationRepo() *fakeReconciliationRepo {
	return &fakeReconciliationRepo{}
}

func (r *fakeReconciliationRepo) FindByID(_ context.Context, id uuid.UUID) (*bookkeeping.ReconciliationTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx := range r.tasks {
		if r.tasks[idx].ID == id {
			task := r.tasks[idx]
			return &task, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeReconciliationRepo) FindByReplenishmentEvent(_ context.Context, eventID uuid.UUID) (*bookkeeping.ReconciliationTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx := range r.tasks {
		if r.tasks[idx].ReplenishmentEventID == eventID {
			task := r.tasks[idx]
			return &task, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeReconciliationRepo) FindPending(_ context.Context, _ shared.Filter) ([]bookkeeping.ReconciliationTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]bookkeeping.ReconciliationTask, 0)
	for _, task := range r.tasks {
		if task.IsPending() {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (r *fakeReconciliationRepo) CountPending(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, task := range r.tasks {
		if task.IsPending() {
			count++
		}
	}
	return count, nil
}

func (r *fakeReconciliationRepo) Create(_ context.Context, task *bookkeeping.ReconciliationTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, *task)
	return nil
}

func (r *fakeReconciliationRepo) Save(_ context.Context, task *bookkeeping.ReconciliationTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx := range r.tasks {
		if r.tasks[idx].ID == task.ID {
			r.tasks[idx] = *task
			return nil
		}
	}
	return shared.ErrNotFound
}

// conflictOnceOrderRepo wraps an order repository and fails the next
// SaveWithLock with a concurrency conflict, simulating a lost optimistic
// lock race that forces the caller to rerun the whole transaction.
type conflictOnceOrderRepo struct {
	procurement.PurchaseOrderRepository
	mu      sync.Mutex
	pending bool
}

func (r *conflictOnceOrderRepo) failNext() {
	r.mu.Lock()
	r.pending = true
	r.mu.Unlock()
}

func (r *conflictOnceOrderRepo) SaveWithLock(ctx context.Context, order *procurement.PurchaseOrder) error {
	r.mu.Lock()
	fail := r.pending
	r.pending = false
	r.mu.Unlock()
	if fail {
		return shared.ErrConcurrencyConflict
	}
	return r.PurchaseOrderRepository.SaveWithLock(ctx, order)
}

// duplicateOnceOrderRepo wraps an order repository and fails the next
// Create as a unique-index violation, simulating a concurrent create
// that won the same monthly PO number.
type duplicateOnceOrderRepo struct {
	procurement.PurchaseOrderRepository
	mu          sync.Mutex
	pending     bool
	createCalls int
}

func (r *duplicateOnceOrderRepo) failNext() {
	r.mu.Lock()
	r.pending = true
	r.mu.Unlock()
}

func (r *duplicateOnceOrderRepo) Create(ctx context.Context, order *procurement.PurchaseOrder) error {
	r.mu.Lock()
	r.createCalls++
	fail := r.pending
	r.pending = false
	r.mu.Unlock()
	if fail {
		return shared.ErrAlreadyExists
	}
	return r.PurchaseOrderRepository.Create(ctx, order)
}

// MockGateway is a testify mock of the bookkeeping gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Record(ctx context.Context, entry *bookkeeping.Entry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

// fakeIdempotencyStore is an in-memory IdempotencyStore
type fakeIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: make(map[string]struct{})}
}

func (s *fakeIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok, nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }
