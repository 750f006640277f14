package inventory

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReplenishmentSource is the kind of action that produced a stock-in batch.
type ReplenishmentSource string

const (
	// SourceManual is a manual restock entered by an operator
	SourceManual ReplenishmentSource = "MANUAL"
	// SourcePurchaseOrder is a purchase order marked received
	SourcePurchaseOrder ReplenishmentSource = "PURCHASE_ORDER"
)

// IsValid returns true if the source is valid
func (s ReplenishmentSource) IsValid() bool {
	return s == SourceManual || s == SourcePurchaseOrder
}

// String returns the string representation of ReplenishmentSource
func (s ReplenishmentSource) String() string {
	return string(s)
}

// ReplenishmentEvent is an immutable audit record of one stock-in batch.
// Corrections are made with new compensating events, never by editing.
type ReplenishmentEvent struct {
	shared.BaseEntity
	InventoryItemID uuid.UUID           `gorm:"type:uuid;not null;index:idx_replenishment_item_time,priority:1"`
	Quantity        int64               `gorm:"not null"`
	BatchCost       decimal.Decimal     `gorm:"type:decimal(18,4);not null"` // total cost of the batch
	BatchUnitCost   decimal.Decimal     `gorm:"type:decimal(18,4);not null"` // BatchCost / Quantity
	BalanceBefore   int64               `gorm:"not null"`                    // item quantity before the credit
	BalanceAfter    int64               `gorm:"not null"`                    // item quantity after the credit
	UnitCostAfter   decimal.Decimal     `gorm:"type:decimal(18,4);not null"` // weighted-average cost after the credit
	Source          ReplenishmentSource `gorm:"type:varchar(30);not null;index"`
	// SourcePOItemID links a PO-driven replenishment back to the line item
	// that produced it.
	SourcePOItemID *uuid.UUID `gorm:"type:uuid;index"`
	PONumber       string     `gorm:"type:varchar(50)"`
	// BookkeepingEntryID is the opaque ID returned by the bookkeeping
	// gateway; nil when the entry is pending reconciliation. Unique so the
	// same entry can never back two replenishments.
	BookkeepingEntryID *string   `gorm:"type:varchar(100);uniqueIndex"`
	OccurredOn         time.Time `gorm:"type:timestamptz;not null;index:idx_replenishment_item_time,priority:2"`
}

// TableName returns the table name for GORM
func (ReplenishmentEvent) TableName() string {
	return "replenishment_events"
}

// NewReplenishmentEvent creates an audit record for a stock-in batch.
// balanceBefore/balanceAfter and unitCostAfter snapshot the ledger mutation
// the event points at.
func NewReplenishmentEvent(
	itemID uuid.UUID,
	quantity int64,
	batchCost decimal.Decimal,
	balanceBefore, balanceAfter int64,
	unitCostAfter decimal.Decimal,
	source ReplenishmentSource,
	occurredOn time.Time,
) (*ReplenishmentEvent, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeUnknownItem, "Inventory item ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Replenishment quantity must be positive")
	}
	if batchCost.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidCost, "Batch cost cannot be negative")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Invalid replenishment source")
	}
	if occurredOn.IsZero() {
		occurredOn = time.Now()
	}

	return &ReplenishmentEvent{
		BaseEntity:      shared.NewBaseEntity(),
		InventoryItemID: itemID,
		Quantity:        quantity,
		BatchCost:       batchCost,
		BatchUnitCost:   BatchUnitCost(batchCost, quantity),
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		UnitCostAfter:   unitCostAfter,
		Source:          source,
		OccurredOn:      occurredOn,
	}, nil
}

// Namespaces seeding the deterministic event IDs so a retried submission
// reuses the bookkeeping reference of the attempt it repeats.
var (
	poReplenishmentNamespace     = uuid.MustParse("5ba3c9e8-7d41-4b7a-9f28-0c6de3a14b52")
	manualReplenishmentNamespace = uuid.MustParse("e12f0a6b-94d3-4c18-8f6a-2b9c50d7e431")
)

// WithPurchaseOrderItem links the event to the PO line item that caused it.
// The event ID is derived from the line so a retried receive transaction
// submits its bookkeeping entry under the same reference ID instead of a
// fresh one per attempt.
func (e *ReplenishmentEvent) WithPurchaseOrderItem(poItemID uuid.UUID, poNumber string) *ReplenishmentEvent {
	e.SourcePOItemID = &poItemID
	e.PONumber = poNumber
	e.ID = uuid.NewSHA1(poReplenishmentNamespace, poItemID[:])
	return e
}

// WithBatchRef keys a manual batch by a client-supplied reference so a
// retried request books under the same reference ID.
func (e *ReplenishmentEvent) WithBatchRef(ref uuid.UUID) *ReplenishmentEvent {
	e.ID = uuid.NewSHA1(manualReplenishmentNamespace, ref[:])
	return e
}

// WithBookkeepingEntry records the bookkeeping entry ID returned by the
// gateway. Valid only before the event is persisted or when resolving a
// reconciliation task.
func (e *ReplenishmentEvent) WithBookkeepingEntry(entryID string) *ReplenishmentEvent {
	e.BookkeepingEntryID = &entryID
	return e
}

// IsBooked returns true if a bookkeeping entry backs this replenishment.
func (e *ReplenishmentEvent) IsBooked() bool {
	return e.BookkeepingEntryID != nil
}

// FromPurchaseOrder returns true for PO-driven replenishments.
func (e *ReplenishmentEvent) FromPurchaseOrder() bool {
	return e.Source == SourcePurchaseOrder
}
