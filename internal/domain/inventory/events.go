package inventory

import (
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the inventory aggregate
const (
	EventTypeItemDefined       = "inventory.item_defined"
	EventTypeStockCredited     = "inventory.stock_credited"
	EventTypeStockDebited      = "inventory.stock_debited"
	EventTypeItemCostChanged   = "inventory.item_cost_changed"
	EventTypeStockStateChanged = "inventory.stock_state_changed"
	EventTypeItemActivated     = "inventory.item_activated"
)

const aggregateTypeInventoryItem = "InventoryItem"

// ItemDefinedEvent is emitted when a new stock-keeping unit is defined
type ItemDefinedEvent struct {
	shared.BaseDomainEvent
	Kind ItemKind `json:"kind"`
	Name string   `json:"name"`
	SKU  string   `json:"sku"`
}

// NewItemDefinedEvent creates a new ItemDefinedEvent
func NewItemDefinedEvent(item *InventoryItem) *ItemDefinedEvent {
	return &ItemDefinedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemDefined, aggregateTypeInventoryItem, item.ID),
		Kind:            item.Kind,
		Name:            item.Name,
		SKU:             item.SKU,
	}
}

// StockCreditedEvent is emitted when a replenishment batch is credited
type StockCreditedEvent struct {
	shared.BaseDomainEvent
	Quantity      int64           `json:"quantity"`
	BatchUnitCost decimal.Decimal `json:"batch_unit_cost"`
	NewQuantity   int64           `json:"new_quantity"`
	NewUnitCost   decimal.Decimal `json:"new_unit_cost"`
}

// NewStockCreditedEvent creates a new StockCreditedEvent
func NewStockCreditedEvent(item *InventoryItem, quantity int64, batchUnitCost decimal.Decimal) *StockCreditedEvent {
	return &StockCreditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockCredited, aggregateTypeInventoryItem, item.ID),
		Quantity:        quantity,
		BatchUnitCost:   batchUnitCost,
		NewQuantity:     item.Quantity,
		NewUnitCost:     item.UnitCost,
	}
}

// StockDebitedEvent is emitted when stock is removed for fulfilment
type StockDebitedEvent struct {
	shared.BaseDomainEvent
	Quantity    int64 `json:"quantity"`
	NewQuantity int64 `json:"new_quantity"`
}

// NewStockDebitedEvent creates a new StockDebitedEvent
func NewStockDebitedEvent(item *InventoryItem, quantity int64) *StockDebitedEvent {
	return &StockDebitedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDebited, aggregateTypeInventoryItem, item.ID),
		Quantity:        quantity,
		NewQuantity:     item.Quantity,
	}
}

// ItemCostChangedEvent is emitted when the weighted-average cost moves
type ItemCostChangedEvent struct {
	shared.BaseDomainEvent
	OldUnitCost decimal.Decimal `json:"old_unit_cost"`
	NewUnitCost decimal.Decimal `json:"new_unit_cost"`
}

// NewItemCostChangedEvent creates a new ItemCostChangedEvent
func NewItemCostChangedEvent(item *InventoryItem, oldCost, newCost decimal.Decimal) *ItemCostChangedEvent {
	return &ItemCostChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemCostChanged, aggregateTypeInventoryItem, item.ID),
		OldUnitCost:     oldCost,
		NewUnitCost:     newCost,
	}
}

// StockStateChangedEvent is emitted when the derived stock state changes,
// e.g. an item leaving OUT_OF_STOCK after a credit or dropping to LOW_STOCK
// after a debit.
type StockStateChangedEvent struct {
	shared.BaseDomainEvent
	OldState StockState `json:"old_state"`
	NewState StockState `json:"new_state"`
	Quantity int64      `json:"quantity"`
}

// NewStockStateChangedEvent creates a new StockStateChangedEvent
func NewStockStateChangedEvent(item *InventoryItem, oldState, newState StockState) *StockStateChangedEvent {
	return &StockStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockStateChanged, aggregateTypeInventoryItem, item.ID),
		OldState:        oldState,
		NewState:        newState,
		Quantity:        item.Quantity,
	}
}

// ItemActivatedEvent is emitted when a manually inactive item is reactivated
type ItemActivatedEvent struct {
	shared.BaseDomainEvent
	SKU string `json:"sku"`
}

// NewItemActivatedEvent creates a new ItemActivatedEvent
func NewItemActivatedEvent(item *InventoryItem) *ItemActivatedEvent {
	return &ItemActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemActivated, aggregateTypeInventoryItem, item.ID),
		SKU:             item.SKU,
	}
}
