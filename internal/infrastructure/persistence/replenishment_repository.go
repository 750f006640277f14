package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReplenishmentEventRepository implements ReplenishmentEventRepository
// using GORM. Events are append-only; the only permitted update is filling
// in the bookkeeping entry ID after a reconciliation resolves.
type GormReplenishmentEventRepository struct {
	db *gorm.DB
}

// NewGormReplenishmentEventRepository creates a new GormReplenishmentEventRepository
func NewGormReplenishmentEventRepository(db *gorm.DB) *GormReplenishmentEventRepository {
	return &GormReplenishmentEventRepository{db: db}
}

// Create appends a replenishment event
func (r *GormReplenishmentEventRepository) Create(ctx context.Context, event *inventory.ReplenishmentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindByID finds a replenishment event by its ID
func (r *GormReplenishmentEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.ReplenishmentEvent, error) {
	var event inventory.ReplenishmentEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// FindByItem returns the events of one item in chronological order
func (r *GormReplenishmentEventRepository) FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]inventory.ReplenishmentEvent, error) {
	var events []inventory.ReplenishmentEvent
	query := r.db.WithContext(ctx).
		Model(&inventory.ReplenishmentEvent{}).
		Where("inventory_item_id = ?", itemID).
		Order("occurred_on ASC, created_at ASC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindByPurchaseOrderItem returns the events produced by one PO line
func (r *GormReplenishmentEventRepository) FindByPurchaseOrderItem(ctx context.Context, poItemID uuid.UUID) ([]inventory.ReplenishmentEvent, error) {
	var events []inventory.ReplenishmentEvent
	if err := r.db.WithContext(ctx).
		Where("source_po_item_id = ?", poItemID).
		Order("occurred_on ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountByItem counts the events of one item
func (r *GormReplenishmentEventRepository) CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.ReplenishmentEvent{}).
		Where("inventory_item_id = ?", itemID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SetBookkeepingEntry fills in the bookkeeping entry ID of an event that
// was pending reconciliation
func (r *GormReplenishmentEventRepository) SetBookkeepingEntry(ctx context.Context, eventID uuid.UUID, entryID string) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.ReplenishmentEvent{}).
		Where("id = ?", eventID).
		Update("bookkeeping_entry_id", entryID)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormReplenishmentEventRepository implements ReplenishmentEventRepository
var _ inventory.ReplenishmentEventRepository = (*GormReplenishmentEventRepository)(nil)
