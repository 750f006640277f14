package event

import (
	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/backoffice/backend/internal/domain/procurement"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Inventory domain events
	serializer.Register(inventory.EventTypeItemDefined, &inventory.ItemDefinedEvent{})
	serializer.Register(inventory.EventTypeStockCredited, &inventory.StockCreditedEvent{})
	serializer.Register(inventory.EventTypeStockDebited, &inventory.StockDebitedEvent{})
	serializer.Register(inventory.EventTypeItemCostChanged, &inventory.ItemCostChangedEvent{})
	serializer.Register(inventory.EventTypeStockStateChanged, &inventory.StockStateChangedEvent{})
	serializer.Register(inventory.EventTypeItemActivated, &inventory.ItemActivatedEvent{})

	// Procurement domain events
	serializer.Register(procurement.EventTypePurchaseOrderCreated, &procurement.PurchaseOrderCreatedEvent{})
	serializer.Register(procurement.EventTypePurchaseOrderStatusChanged, &procurement.PurchaseOrderStatusChangedEvent{})
	serializer.Register(procurement.EventTypePurchaseOrderReceived, &procurement.PurchaseOrderReceivedEvent{})
	serializer.Register(procurement.EventTypePurchaseOrderCancelled, &procurement.PurchaseOrderCancelledEvent{})
}
