package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReconciliationTaskRepository implements ReconciliationTaskRepository using GORM
type GormReconciliationTaskRepository struct {
	db *gorm.DB
}

// NewGormReconciliationTaskRepository creates a new GormReconciliationTaskRepository
func NewGormReconciliationTaskRepository(db *gorm.DB) *GormReconciliationTaskRepository {
	return &GormReconciliationTaskRepository{db: db}
}

// FindByID finds a reconciliation task by ID
func (r *GormReconciliationTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookkeeping.ReconciliationTask, error) {
	var task bookkeeping.ReconciliationTask
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// FindByReplenishmentEvent finds the task queued for a replenishment event
func (r *GormReconciliationTaskRepository) FindByReplenishmentEvent(ctx context.Context, eventID uuid.UUID) (*bookkeeping.ReconciliationTask, error) {
	var task bookkeeping.ReconciliationTask
	if err := r.db.WithContext(ctx).First(&task, "replenishment_event_id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// FindPending returns unresolved tasks, oldest first
func (r *GormReconciliationTaskRepository) FindPending(ctx context.Context, filter shared.Filter) ([]bookkeeping.ReconciliationTask, error) {
	var tasks []bookkeeping.ReconciliationTask
	query := r.db.WithContext(ctx).
		Model(&bookkeeping.ReconciliationTask{}).
		Where("status = ?", bookkeeping.ReconciliationStatusPending)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	field := ValidateSortField(filter.OrderBy, ReconciliationTaskSortFields, "created_at")
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountPending counts unresolved tasks
func (r *GormReconciliationTaskRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&bookkeeping.ReconciliationTask{}).
		Where("status = ?", bookkeeping.ReconciliationStatusPending).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new reconciliation task
func (r *GormReconciliationTaskRepository) Create(ctx context.Context, task *bookkeeping.ReconciliationTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Save updates a reconciliation task
func (r *GormReconciliationTaskRepository) Save(ctx context.Context, task *bookkeeping.ReconciliationTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// Ensure GormReconciliationTaskRepository implements ReconciliationTaskRepository
var _ bookkeeping.ReconciliationTaskRepository = (*GormReconciliationTaskRepository)(nil)
