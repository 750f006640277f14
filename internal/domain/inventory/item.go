package inventory

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemKind distinguishes sellable products from packaging materials.
type ItemKind string

const (
	ItemKindProduct   ItemKind = "PRODUCT"
	ItemKindPackaging ItemKind = "PACKAGING"
)

// IsValid checks if the kind is a valid ItemKind
func (k ItemKind) IsValid() bool {
	return k == ItemKindProduct || k == ItemKindPackaging
}

// String returns the string representation of ItemKind
func (k ItemKind) String() string {
	return string(k)
}

// StockState is the quantity-derived state of an item. It is never stored;
// it is always recomputed from quantity and reorder point.
type StockState string

const (
	StockStateOutOfStock StockState = "OUT_OF_STOCK"
	StockStateLowStock   StockState = "LOW_STOCK"
	StockStateInStock    StockState = "IN_STOCK"
)

// InventoryItem is the aggregate root for a stock-keeping unit: a product
// or a packaging material with a running quantity and a weighted-average
// unit cost. Quantity and unit cost are mutated only through Credit/Debit.
type InventoryItem struct {
	shared.BaseAggregateRoot
	Kind     ItemKind `gorm:"type:varchar(20);not null;index"`
	Name     string   `gorm:"type:varchar(200);not null"`
	SKU      string   `gorm:"type:varchar(50);not null;uniqueIndex"`
	Quantity int64    `gorm:"not null;default:0"`
	// UnitCost is the moving weighted-average cost per unit. It is zero
	// until the first replenishment.
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderPoint int64           `gorm:"not null;default:0"`
	// Inactive is an explicit manual flag. It overrides display status but
	// never the quantity-derived stock state.
	Inactive bool `gorm:"not null;default:false"`

	// Product-only packaging link
	LinkedPackagingID    *uuid.UUID `gorm:"type:uuid;index"`
	PackagingQtyPerUnit  int64      `gorm:"not null;default:1"`
	IncludePackagingCost bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates a new item with zero quantity and undefined cost.
func NewInventoryItem(kind ItemKind, name, sku string) (*InventoryItem, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Item kind must be PRODUCT or PACKAGING")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Item SKU cannot be empty")
	}

	item := &InventoryItem{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		Kind:                kind,
		Name:                name,
		SKU:                 sku,
		Quantity:            0,
		UnitCost:            decimal.Zero,
		PackagingQtyPerUnit: 1,
	}

	item.AddDomainEvent(NewItemDefinedEvent(item))

	return item, nil
}

// Credit adds a replenishment batch to the item and recomputes the
// weighted-average unit cost. quantity must be positive and batchUnitCost
// non-negative; on success the item may leave the OUT_OF_STOCK state.
func (i *InventoryItem) Credit(quantity int64, batchUnitCost valueobject.Money) error {
	if quantity <= 0 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Credit quantity must be positive")
	}
	if batchUnitCost.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidCost, "Batch unit cost cannot be negative")
	}

	oldCost := i.UnitCost
	oldState := i.StockState()

	i.UnitCost = WeightedAverageUnitCost(i.Quantity, i.UnitCost, quantity, batchUnitCost.Amount())
	i.Quantity += quantity
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockCreditedEvent(i, quantity, batchUnitCost.Amount()))
	if !oldCost.Equal(i.UnitCost) {
		i.AddDomainEvent(NewItemCostChangedEvent(i, oldCost, i.UnitCost))
	}
	if newState := i.StockState(); newState != oldState {
		i.AddDomainEvent(NewStockStateChangedEvent(i, oldState, newState))
	}

	return nil
}

// Debit removes stock from the item. Fails with INSUFFICIENT_STOCK if the
// quantity would go negative; the unit cost is unchanged by a debit.
func (i *InventoryItem) Debit(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Debit quantity must be positive")
	}
	if quantity > i.Quantity {
		return shared.NewDomainError(shared.CodeInsufficientStock, "Debit would drive quantity negative")
	}

	oldState := i.StockState()

	i.Quantity -= quantity
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockDebitedEvent(i, quantity))
	if newState := i.StockState(); newState != oldState {
		i.AddDomainEvent(NewStockStateChangedEvent(i, oldState, newState))
	}

	return nil
}

// StockState returns the quantity-derived state of the item.
func (i *InventoryItem) StockState() StockState {
	switch {
	case i.Quantity == 0:
		return StockStateOutOfStock
	case i.ReorderPoint > 0 && i.Quantity <= i.ReorderPoint:
		return StockStateLowStock
	default:
		return StockStateInStock
	}
}

// DisplayStatus returns the status shown to users: the manual inactive flag
// overrides the derived stock state for display only.
func (i *InventoryItem) DisplayStatus() string {
	if i.Inactive {
		return "INACTIVE"
	}
	return string(i.StockState())
}

// SetReorderPoint sets the quantity threshold below which the item is
// considered low stock.
func (i *InventoryItem) SetReorderPoint(quantity int64) error {
	if quantity < 0 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Reorder point cannot be negative")
	}
	i.ReorderPoint = quantity
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// Activate clears the manual inactive flag.
func (i *InventoryItem) Activate() {
	if !i.Inactive {
		return
	}
	i.Inactive = false
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	i.AddDomainEvent(NewItemActivatedEvent(i))
}

// Deactivate sets the manual inactive flag. Quantity and cost are untouched.
func (i *InventoryItem) Deactivate() {
	if i.Inactive {
		return
	}
	i.Inactive = true
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// LinkPackaging links a packaging material to a product, with the number of
// packaging units consumed per product unit.
func (i *InventoryItem) LinkPackaging(packagingID uuid.UUID, qtyPerUnit int64, includeCost bool) error {
	if i.Kind != ItemKindProduct {
		return shared.NewDomainError("INVALID_KIND", "Only products can link packaging")
	}
	if packagingID == uuid.Nil {
		return shared.NewDomainError(shared.CodeUnknownItem, "Packaging item ID cannot be empty")
	}
	if packagingID == i.ID {
		return shared.NewDomainError("INVALID_LINK", "Item cannot link to itself")
	}
	if qtyPerUnit < 1 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Packaging quantity per unit must be at least 1")
	}

	i.LinkedPackagingID = &packagingID
	i.PackagingQtyPerUnit = qtyPerUnit
	i.IncludePackagingCost = includeCost
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// UnlinkPackaging removes the packaging link from a product.
func (i *InventoryItem) UnlinkPackaging() {
	i.LinkedPackagingID = nil
	i.PackagingQtyPerUnit = 1
	i.IncludePackagingCost = false
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// CompositeUnitCost returns the product's cost basis including its linked
// packaging share when cost inclusion is enabled; otherwise the base cost.
func (i *InventoryItem) CompositeUnitCost(packagingUnitCost decimal.Decimal) decimal.Decimal {
	if i.LinkedPackagingID == nil || !i.IncludePackagingCost {
		return i.UnitCost
	}
	return CompositeUnitCost(i.UnitCost, packagingUnitCost, i.PackagingQtyPerUnit)
}

// TotalValue returns the total inventory value (quantity * unit cost).
func (i *InventoryItem) TotalValue() valueobject.Money {
	return valueobject.NewMoneyUSD(i.UnitCost.Mul(decimal.NewFromInt(i.Quantity)))
}

// UnitCostMoney returns the unit cost as a Money value object.
func (i *InventoryItem) UnitCostMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.UnitCost)
}

// IsBelowReorderPoint returns true if the quantity is at or below the
// configured reorder point.
func (i *InventoryItem) IsBelowReorderPoint() bool {
	return i.ReorderPoint > 0 && i.Quantity <= i.ReorderPoint
}

// HasStock returns true if there is stock on hand.
func (i *InventoryItem) HasStock() bool {
	return i.Quantity > 0
}
