package inventory

import (
	"context"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InventoryItemRepository defines persistence operations for InventoryItem.
// Quantity and unit cost writes go through SaveWithLock so concurrent
// mutations of the same item are detected by the version column.
type InventoryItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	FindBySKU(ctx context.Context, sku string) (*InventoryItem, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]InventoryItem, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]InventoryItem, error)
	FindBelowReorderPoint(ctx context.Context, filter shared.Filter) ([]InventoryItem, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Create(ctx context.Context, item *InventoryItem) error
	Save(ctx context.Context, item *InventoryItem) error
	SaveWithLock(ctx context.Context, item *InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReplenishmentEventRepository is the append-only store for stock-in audit
// records. There is no update or delete; corrections are new events. The
// single exception is attaching a late bookkeeping entry ID when a
// reconciliation task resolves.
type ReplenishmentEventRepository interface {
	Create(ctx context.Context, event *ReplenishmentEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*ReplenishmentEvent, error)
	// FindByItem returns an item's events in chronological order.
	FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]ReplenishmentEvent, error)
	FindByPurchaseOrderItem(ctx context.Context, poItemID uuid.UUID) ([]ReplenishmentEvent, error)
	CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error)
	// SetBookkeepingEntry attaches the entry ID produced by a resolved
	// reconciliation task. Fails if the event already has one.
	SetBookkeepingEntry(ctx context.Context, eventID uuid.UUID, entryID string) error
}
