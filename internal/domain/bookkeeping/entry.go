package bookkeeping

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// EntryCategory represents the expense category of a bookkeeping entry
type EntryCategory string

const (
	// CategoryPackagingMaterials is the category for purchase-order
	// packaging spend
	CategoryPackagingMaterials EntryCategory = "Packaging Materials"
	// CategoryInventoryRestock is the category for manual replenishments
	CategoryInventoryRestock EntryCategory = "Inventory Restock"
)

// IsValid checks if the category is a valid EntryCategory
func (c EntryCategory) IsValid() bool {
	return c == CategoryPackagingMaterials || c == CategoryInventoryRestock
}

// String returns the string representation of EntryCategory
func (c EntryCategory) String() string {
	return string(c)
}

// Entry is an expense record submitted to the external bookkeeping system.
// ReferenceID is the caller's dedupe key (the replenishment event ID); the
// remote system treats repeated submissions with the same reference as one
// entry.
type Entry struct {
	ReferenceID uuid.UUID
	Category    EntryCategory
	Amount      valueobject.Money
	Date        time.Time
	Memo        string
}

// NewEntry creates a bookkeeping entry for submission
func NewEntry(referenceID uuid.UUID, category EntryCategory, amount valueobject.Money, date time.Time, memo string) (*Entry, error) {
	if referenceID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidEntry, "Entry reference ID cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidEntry, "Invalid entry category")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidEntry, "Entry amount cannot be negative")
	}
	if date.IsZero() {
		date = time.Now()
	}

	return &Entry{
		ReferenceID: referenceID,
		Category:    category,
		Amount:      amount,
		Date:        date,
		Memo:        memo,
	}, nil
}

// Gateway is the outbound port to the external bookkeeping system.
//
// Record returns the remote entry ID on success. Failures are DomainError
// values: GATEWAY_UNAVAILABLE is transient and worth retrying,
// INVALID_ENTRY is terminal and must go to reconciliation instead.
type Gateway interface {
	Record(ctx context.Context, entry *Entry) (string, error)
}
