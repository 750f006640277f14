package procurement

import (
	"fmt"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the lifecycle status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusPending   PurchaseOrderStatus = "PENDING"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "CONFIRMED"
	PurchaseOrderStatusShipped   PurchaseOrderStatus = "SHIPPED"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusCompleted PurchaseOrderStatus = "COMPLETED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusPending, PurchaseOrderStatusConfirmed, PurchaseOrderStatusShipped,
		PurchaseOrderStatusReceived, PurchaseOrderStatusCompleted, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Forward movement is strictly linear; cancellation is allowed until goods
// are received.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderStatusPending:
		return target == PurchaseOrderStatusConfirmed || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusConfirmed:
		return target == PurchaseOrderStatusShipped || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusShipped:
		return target == PurchaseOrderStatusReceived || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusReceived:
		return target == PurchaseOrderStatusCompleted
	case PurchaseOrderStatusCompleted, PurchaseOrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// AllowsItemEdits returns true while line items may still be changed
func (s PurchaseOrderStatus) AllowsItemEdits() bool {
	return s == PurchaseOrderStatusPending || s == PurchaseOrderStatusConfirmed
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusCompleted || s == PurchaseOrderStatusCancelled
}

// PurchaseOrderItem is one line of a purchase order: a quantity of one
// packaging material at an agreed unit cost.
type PurchaseOrderItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	PackagingItemID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	PackagingName    string          `gorm:"type:varchar(200);not null"`
	PackagingSKU     string          `gorm:"type:varchar(50);not null"`
	Quantity         int64           `gorm:"not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost        decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Quantity * UnitCost
	SupplierOverride string          `gorm:"type:varchar(200)"`
	Notes            string          `gorm:"type:varchar(500)"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// NewPurchaseOrderItem creates a new purchase order line item
func NewPurchaseOrderItem(orderID, packagingItemID uuid.UUID, packagingName, packagingSKU string, quantity int64, unitCost valueobject.Money) (*PurchaseOrderItem, error) {
	if packagingItemID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeUnknownItem, "Packaging item ID cannot be empty")
	}
	if packagingName == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Packaging item name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidCost, "Unit cost cannot be negative")
	}

	now := time.Now()

	return &PurchaseOrderItem{
		ID:              uuid.New(),
		OrderID:         orderID,
		PackagingItemID: packagingItemID,
		PackagingName:   packagingName,
		PackagingSKU:    packagingSKU,
		Quantity:        quantity,
		UnitCost:        unitCost.Amount(),
		TotalCost:       unitCost.Amount().Mul(decimal.NewFromInt(quantity)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// UpdateQuantity updates the line quantity and recalculates its total
func (i *PurchaseOrderItem) UpdateQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be positive")
	}

	i.Quantity = quantity
	i.TotalCost = i.UnitCost.Mul(decimal.NewFromInt(quantity))
	i.UpdatedAt = time.Now()

	return nil
}

// UpdateUnitCost updates the unit cost and recalculates the line total
func (i *PurchaseOrderItem) UpdateUnitCost(unitCost valueobject.Money) error {
	if unitCost.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidCost, "Unit cost cannot be negative")
	}

	i.UnitCost = unitCost.Amount()
	i.TotalCost = i.UnitCost.Mul(decimal.NewFromInt(i.Quantity))
	i.UpdatedAt = time.Now()

	return nil
}

// SetSupplierOverride sets a per-line supplier different from the order's
func (i *PurchaseOrderItem) SetSupplierOverride(supplier string) {
	i.SupplierOverride = supplier
	i.UpdatedAt = time.Now()
}

// SetNotes sets the line notes
func (i *PurchaseOrderItem) SetNotes(notes string) {
	i.Notes = notes
	i.UpdatedAt = time.Now()
}

// UnitCostMoney returns the unit cost as Money value object
func (i *PurchaseOrderItem) UnitCostMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.UnitCost)
}

// TotalCostMoney returns the line total as Money value object
func (i *PurchaseOrderItem) TotalCostMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.TotalCost)
}

// PurchaseOrder is the aggregate root for a procurement order of packaging
// materials, tracked from creation through receipt. The received side
// effects (ledger credits, replenishment events, bookkeeping) are applied
// exactly once, guarded by ReceivedSideEffectsApplied on the order row.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	PONumber         string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	Supplier         string              `gorm:"type:varchar(200);not null"`
	OrderDate        time.Time           `gorm:"type:timestamptz;not null;index"`
	ExpectedDelivery *time.Time          `gorm:"type:timestamptz"`
	ActualDelivery   *time.Time          `gorm:"type:timestamptz"`
	Items            []PurchaseOrderItem `gorm:"foreignKey:OrderID;references:ID"`
	TotalCost        decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"` // Sum of line totals
	Status           PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	// ReceivedSideEffectsApplied guards the received side effects. It is
	// checked and set inside the same transaction that applies them, so a
	// repeated or concurrent receive request cannot double-credit stock.
	ReceivedSideEffectsApplied bool       `gorm:"not null;default:false"`
	Notes                      string     `gorm:"type:text"`
	CancelledAt                *time.Time `gorm:"type:timestamptz"`
	CancelReason               string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a new purchase order in PENDING status
func NewPurchaseOrder(poNumber, supplier string, orderDate time.Time) (*PurchaseOrder, error) {
	if poNumber == "" {
		return nil, shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot be empty")
	}
	if len(poNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot exceed 50 characters")
	}
	if supplier == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier cannot be empty")
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PONumber:          poNumber,
		Supplier:          supplier,
		OrderDate:         orderDate,
		Items:             make([]PurchaseOrderItem, 0),
		TotalCost:         decimal.Zero,
		Status:            PurchaseOrderStatusPending,
	}

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))

	return order, nil
}

// AddItem adds a new line item to the order.
// Allowed only while the status permits edits.
func (o *PurchaseOrder) AddItem(packagingItemID uuid.UUID, packagingName, packagingSKU string, quantity int64, unitCost valueobject.Money) (*PurchaseOrderItem, error) {
	if !o.Status.AllowsItemEdits() {
		return nil, shared.NewDomainError(shared.CodeOrderLocked, fmt.Sprintf("Cannot modify items of an order in %s status", o.Status))
	}

	for _, item := range o.Items {
		if item.PackagingItemID == packagingItemID {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "Packaging item already on order, update quantity instead")
		}
	}

	item, err := NewPurchaseOrderItem(o.ID, packagingItemID, packagingName, packagingSKU, quantity, unitCost)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return item, nil
}

// UpdateItemQuantity updates the quantity of an existing line item
func (o *PurchaseOrder) UpdateItemQuantity(itemID uuid.UUID, quantity int64) error {
	if !o.Status.AllowsItemEdits() {
		return shared.NewDomainError(shared.CodeOrderLocked, fmt.Sprintf("Cannot modify items of an order in %s status", o.Status))
	}

	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			if err := o.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			o.recalculateTotal()
			o.UpdatedAt = time.Now()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// UpdateItemCost updates the unit cost of an existing line item
func (o *PurchaseOrder) UpdateItemCost(itemID uuid.UUID, unitCost valueobject.Money) error {
	if !o.Status.AllowsItemEdits() {
		return shared.NewDomainError(shared.CodeOrderLocked, fmt.Sprintf("Cannot modify items of an order in %s status", o.Status))
	}

	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			if err := o.Items[idx].UpdateUnitCost(unitCost); err != nil {
				return err
			}
			o.recalculateTotal()
			o.UpdatedAt = time.Now()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// RemoveItem removes a line item from the order
func (o *PurchaseOrder) RemoveItem(itemID uuid.UUID) error {
	if !o.Status.AllowsItemEdits() {
		return shared.NewDomainError(shared.CodeOrderLocked, fmt.Sprintf("Cannot modify items of an order in %s status", o.Status))
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculateTotal()
			o.UpdatedAt = time.Now()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// SetExpectedDelivery sets the expected delivery date
func (o *PurchaseOrder) SetExpectedDelivery(date time.Time) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeOrderLocked, "Cannot modify a closed order")
	}

	o.ExpectedDelivery = &date
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// SetNotes sets the order notes
func (o *PurchaseOrder) SetNotes(notes string) {
	o.Notes = notes
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// Confirm transitions the order from PENDING to CONFIRMED.
// Requires at least one line item.
func (o *PurchaseOrder) Confirm() error {
	if err := o.checkTransition(PurchaseOrderStatusConfirmed); err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot confirm an order without items")
	}

	o.setStatus(PurchaseOrderStatusConfirmed)
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, PurchaseOrderStatusPending, PurchaseOrderStatusConfirmed))

	return nil
}

// MarkShipped transitions the order from CONFIRMED to SHIPPED
func (o *PurchaseOrder) MarkShipped() error {
	if err := o.checkTransition(PurchaseOrderStatusShipped); err != nil {
		return err
	}

	o.setStatus(PurchaseOrderStatusShipped)
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, PurchaseOrderStatusConfirmed, PurchaseOrderStatusShipped))

	return nil
}

// MarkReceived transitions the order from SHIPPED to RECEIVED, records the
// actual delivery time and sets the side-effect guard. The caller applies
// the ledger credits and bookkeeping in the same transaction that persists
// this state.
func (o *PurchaseOrder) MarkReceived(receivedAt time.Time) error {
	if err := o.checkTransition(PurchaseOrderStatusReceived); err != nil {
		return err
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	from := o.Status
	o.ActualDelivery = &receivedAt
	o.ReceivedSideEffectsApplied = true
	o.setStatus(PurchaseOrderStatusReceived)
	o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o))
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, from, PurchaseOrderStatusReceived))

	return nil
}

// Complete transitions the order from RECEIVED to COMPLETED
func (o *PurchaseOrder) Complete() error {
	if err := o.checkTransition(PurchaseOrderStatusCompleted); err != nil {
		return err
	}

	o.setStatus(PurchaseOrderStatusCompleted)
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, PurchaseOrderStatusReceived, PurchaseOrderStatusCompleted))

	return nil
}

// Cancel cancels the order. Allowed until goods are received.
func (o *PurchaseOrder) Cancel(reason string) error {
	if err := o.checkTransition(PurchaseOrderStatusCancelled); err != nil {
		return err
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	from := o.Status
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason
	o.setStatus(PurchaseOrderStatusCancelled)
	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o, from))

	return nil
}

// checkTransition validates a status transition against the state table
func (o *PurchaseOrder) checkTransition(target PurchaseOrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	return nil
}

func (o *PurchaseOrder) setStatus(status PurchaseOrderStatus) {
	o.Status = status
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// recalculateTotal keeps TotalCost equal to the sum of line totals
func (o *PurchaseOrder) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalCost)
	}
	o.TotalCost = total
}

// IsReceived returns true once goods have been received
func (o *PurchaseOrder) IsReceived() bool {
	return o.Status == PurchaseOrderStatusReceived || o.Status == PurchaseOrderStatusCompleted
}

// IsCancelled returns true if the order was cancelled
func (o *PurchaseOrder) IsCancelled() bool {
	return o.Status == PurchaseOrderStatusCancelled
}

// CanModifyItems returns true while line items may be edited
func (o *PurchaseOrder) CanModifyItems() bool {
	return o.Status.AllowsItemEdits()
}

// GetItem returns a line item by its ID
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *PurchaseOrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// GetItemByPackaging returns a line item by packaging item ID
func (o *PurchaseOrder) GetItemByPackaging(packagingItemID uuid.UUID) *PurchaseOrderItem {
	for idx := range o.Items {
		if o.Items[idx].PackagingItemID == packagingItemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// References returns true if any line item targets the given inventory item
func (o *PurchaseOrder) References(packagingItemID uuid.UUID) bool {
	return o.GetItemByPackaging(packagingItemID) != nil
}

// ItemCount returns the number of line items
func (o *PurchaseOrder) ItemCount() int {
	return len(o.Items)
}

// TotalQuantity returns the total ordered quantity across all lines
func (o *PurchaseOrder) TotalQuantity() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// TotalCostMoney returns the order total as Money
func (o *PurchaseOrder) TotalCostMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.TotalCost)
}

// EffectiveSupplier returns the line's supplier override when present,
// otherwise the order supplier.
func (o *PurchaseOrder) EffectiveSupplier(item *PurchaseOrderItem) string {
	if item != nil && item.SupplierOverride != "" {
		return item.SupplierOverride
	}
	return o.Supplier
}
