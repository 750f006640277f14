package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/backoffice/backend/internal/domain/procurement"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormPurchaseOrderRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a purchase order by ID with its line items preloaded
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var order procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByNumber finds a purchase order by its PO number
func (r *GormPurchaseOrderRepository) FindByNumber(ctx context.Context, poNumber string) (*procurement.PurchaseOrder, error) {
	var order procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "po_number = ?", poNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll finds purchase orders with filtering and pagination
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.PurchaseOrder, error) {
	var orders []procurement.PurchaseOrder
	query := r.applyFilter(r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{}).Preload("Items"), filter)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByStatus finds purchase orders in a given status
func (r *GormPurchaseOrderRepository) FindByStatus(ctx context.Context, status procurement.PurchaseOrderStatus, filter shared.Filter) ([]procurement.PurchaseOrder, error) {
	var orders []procurement.PurchaseOrder
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{}).
			Preload("Items").
			Where("status = ?", status),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindOpenByPackagingItem returns non-terminal orders with a line targeting
// the given inventory item
func (r *GormPurchaseOrderRepository) FindOpenByPackagingItem(ctx context.Context, packagingItemID uuid.UUID) ([]procurement.PurchaseOrder, error) {
	var orders []procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Joins("JOIN purchase_order_items ON purchase_order_items.order_id = purchase_orders.id").
		Where("purchase_order_items.packaging_item_id = ?", packagingItemID).
		Where("purchase_orders.status NOT IN ?", []procurement.PurchaseOrderStatus{
			procurement.PurchaseOrderStatusCompleted,
			procurement.PurchaseOrderStatusCancelled,
		}).
		Distinct("purchase_orders.*").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts purchase orders matching the filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&procurement.PurchaseOrder{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GeneratePONumber generates the next number in the monthly sequence.
// Format: PO-YYYYMM-NNNN (e.g., PO-202608-0001). The highest row of the
// month is read FOR UPDATE so two transactions cannot hand out the same
// number; the first insert of a month still races and relies on the
// po_number unique index plus the caller's retry.
func (r *GormPurchaseOrderRepository) GeneratePONumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("PO-%s-", time.Now().Format("200601"))

	var lastOrder procurement.PurchaseOrder
	err := r.db.WithContext(ctx).
		Model(&procurement.PurchaseOrder{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("po_number LIKE ?", prefix+"%").
		Order("po_number DESC").
		First(&lastOrder).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastOrder.PONumber != "" {
		parts := strings.Split(lastOrder.PONumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%04d", prefix, nextNum), nil
}

// Create inserts a new purchase order with its line items
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *procurement.PurchaseOrder) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return r.drainEventsToOutbox(ctx, r.db.WithContext(ctx), order)
}

// Save creates or updates a purchase order
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *procurement.PurchaseOrder) error {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error; err != nil {
		return err
	}
	return r.drainEventsToOutbox(ctx, r.db.WithContext(ctx), order)
}

// SaveWithLock saves with optimistic locking. The version check on the
// order row is what keeps racing receive requests from applying the
// received side effects twice.
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *procurement.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&procurement.PurchaseOrder{}).
			Where("id = ? AND version = ?", order.ID, order.Version-1).
			Updates(map[string]interface{}{
				"supplier":                      order.Supplier,
				"status":                        order.Status,
				"order_date":                    order.OrderDate,
				"expected_delivery":             order.ExpectedDelivery,
				"actual_delivery":               order.ActualDelivery,
				"total_cost":                    order.TotalCost,
				"received_side_effects_applied": order.ReceivedSideEffectsApplied,
				"notes":                         order.Notes,
				"cancelled_at":                  order.CancelledAt,
				"cancel_reason":                 order.CancelReason,
				"version":                       order.Version,
				"updated_at":                    order.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		// Replace line items wholesale; orders carry few lines and edits
		// are locked after shipping.
		if err := tx.Where("order_id = ?", order.ID).Delete(&procurement.PurchaseOrderItem{}).Error; err != nil {
			return err
		}
		if len(order.Items) > 0 {
			if err := tx.Create(&order.Items).Error; err != nil {
				return err
			}
		}

		return r.drainEventsToOutbox(ctx, tx, order)
	})
}

// drainEventsToOutbox saves the order's pending domain events to the outbox
// within the given transaction and clears them from the aggregate so they
// are not published a second time after commit.
func (r *GormPurchaseOrderRepository) drainEventsToOutbox(ctx context.Context, tx *gorm.DB, order *procurement.PurchaseOrder) error {
	if r.outboxSaver == nil {
		return nil
	}
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	order.ClearDomainEvents()
	return nil
}

// Delete deletes a purchase order and its line items
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&procurement.PurchaseOrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&procurement.PurchaseOrder{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// applyFilter applies filter options to the query
func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	field := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	return query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPurchaseOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("po_number LIKE ? OR supplier LIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "supplier":
			query = query.Where("supplier = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}

	return query
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ procurement.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
