package bookkeeping

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationStatus represents the state of a reconciliation task
type ReconciliationStatus string

const (
	ReconciliationStatusPending  ReconciliationStatus = "PENDING"
	ReconciliationStatusResolved ReconciliationStatus = "RESOLVED"
)

// ReconciliationTask records a replenishment whose bookkeeping entry could
// not be submitted. The stock credit has already committed; the task keeps
// the missing entry visible until an operator (or a retry job) resolves it
// with the late-arriving entry ID.
type ReconciliationTask struct {
	shared.BaseEntity
	ReplenishmentEventID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	PONumber             string               `gorm:"type:varchar(50);index"`
	Category             EntryCategory        `gorm:"type:varchar(50);not null"`
	Amount               decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	FailureCode          string               `gorm:"type:varchar(50);not null"`
	FailureDetail        string               `gorm:"type:varchar(500)"`
	Attempts             int                  `gorm:"not null"`
	Status               ReconciliationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ResolvedEntryID      *string              `gorm:"type:varchar(100)"`
	ResolvedAt           *time.Time           `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (ReconciliationTask) TableName() string {
	return "reconciliation_tasks"
}

// NewReconciliationTask creates a pending task for a failed entry submission
func NewReconciliationTask(eventID uuid.UUID, poNumber string, category EntryCategory, amount decimal.Decimal, failureCode, failureDetail string, attempts int) (*ReconciliationTask, error) {
	if eventID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidEntry, "Replenishment event ID cannot be empty")
	}
	if failureCode == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidEntry, "Failure code cannot be empty")
	}

	return &ReconciliationTask{
		BaseEntity:           shared.NewBaseEntity(),
		ReplenishmentEventID: eventID,
		PONumber:             poNumber,
		Category:             category,
		Amount:               amount,
		FailureCode:          failureCode,
		FailureDetail:        failureDetail,
		Attempts:             attempts,
		Status:               ReconciliationStatusPending,
	}, nil
}

// Resolve marks the task resolved with the bookkeeping entry that finally
// covered it
func (t *ReconciliationTask) Resolve(entryID string) error {
	if t.Status == ReconciliationStatusResolved {
		return shared.NewDomainError("ALREADY_RESOLVED", "Reconciliation task is already resolved")
	}
	if entryID == "" {
		return shared.NewDomainError(shared.CodeInvalidEntry, "Bookkeeping entry ID cannot be empty")
	}

	now := time.Now()
	t.Status = ReconciliationStatusResolved
	t.ResolvedEntryID = &entryID
	t.ResolvedAt = &now
	t.Touch()

	return nil
}

// RecordAttempt notes one more failed submission attempt against the task
func (t *ReconciliationTask) RecordAttempt(failureDetail string) {
	t.Attempts++
	if failureDetail != "" {
		t.FailureDetail = failureDetail
	}
	t.Touch()
}

// IsPending returns true while the task awaits resolution
func (t *ReconciliationTask) IsPending() bool {
	return t.Status == ReconciliationStatusPending
}

// ReconciliationTaskRepository defines persistence for reconciliation tasks
type ReconciliationTaskRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReconciliationTask, error)
	FindByReplenishmentEvent(ctx context.Context, eventID uuid.UUID) (*ReconciliationTask, error)
	FindPending(ctx context.Context, filter shared.Filter) ([]ReconciliationTask, error)
	CountPending(ctx context.Context) (int64, error)
	Create(ctx context.Context, task *ReconciliationTask) error
	Save(ctx context.Context, task *ReconciliationTask) error
}
