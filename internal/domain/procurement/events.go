package procurement

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the procurement aggregate
const (
	EventTypePurchaseOrderCreated       = "procurement.purchase_order_created"
	EventTypePurchaseOrderStatusChanged = "procurement.purchase_order_status_changed"
	EventTypePurchaseOrderReceived      = "procurement.purchase_order_received"
	EventTypePurchaseOrderCancelled     = "procurement.purchase_order_cancelled"
)

const aggregateTypePurchaseOrder = "PurchaseOrder"

// PurchaseOrderCreatedEvent is emitted when a new order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	PONumber  string    `json:"po_number"`
	Supplier  string    `json:"supplier"`
	OrderDate time.Time `json:"order_date"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(order *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, aggregateTypePurchaseOrder, order.ID),
		PONumber:        order.PONumber,
		Supplier:        order.Supplier,
		OrderDate:       order.OrderDate,
	}
}

// PurchaseOrderStatusChangedEvent is emitted on every status transition
type PurchaseOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	PONumber  string              `json:"po_number"`
	OldStatus PurchaseOrderStatus `json:"old_status"`
	NewStatus PurchaseOrderStatus `json:"new_status"`
}

// NewPurchaseOrderStatusChangedEvent creates a new PurchaseOrderStatusChangedEvent
func NewPurchaseOrderStatusChangedEvent(order *PurchaseOrder, oldStatus, newStatus PurchaseOrderStatus) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderStatusChanged, aggregateTypePurchaseOrder, order.ID),
		PONumber:        order.PONumber,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// ReceivedLineInfo summarizes one line of a received order
type ReceivedLineInfo struct {
	ItemID          string          `json:"item_id"`
	PackagingItemID string          `json:"packaging_item_id"`
	PackagingName   string          `json:"packaging_name"`
	Quantity        int64           `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
}

// PurchaseOrderReceivedEvent is emitted when goods arrive and the received
// side effects are applied
type PurchaseOrderReceivedEvent struct {
	shared.BaseDomainEvent
	PONumber   string             `json:"po_number"`
	Supplier   string             `json:"supplier"`
	TotalCost  decimal.Decimal    `json:"total_cost"`
	ReceivedAt time.Time          `json:"received_at"`
	Lines      []ReceivedLineInfo `json:"lines"`
}

// NewPurchaseOrderReceivedEvent creates a new PurchaseOrderReceivedEvent
func NewPurchaseOrderReceivedEvent(order *PurchaseOrder) *PurchaseOrderReceivedEvent {
	lines := make([]ReceivedLineInfo, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, ReceivedLineInfo{
			ItemID:          item.ID.String(),
			PackagingItemID: item.PackagingItemID.String(),
			PackagingName:   item.PackagingName,
			Quantity:        item.Quantity,
			UnitCost:        item.UnitCost,
			TotalCost:       item.TotalCost,
		})
	}

	receivedAt := time.Now()
	if order.ActualDelivery != nil {
		receivedAt = *order.ActualDelivery
	}

	return &PurchaseOrderReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReceived, aggregateTypePurchaseOrder, order.ID),
		PONumber:        order.PONumber,
		Supplier:        order.Supplier,
		TotalCost:       order.TotalCost,
		ReceivedAt:      receivedAt,
		Lines:           lines,
	}
}

// PurchaseOrderCancelledEvent is emitted when an order is cancelled
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	PONumber   string              `json:"po_number"`
	FromStatus PurchaseOrderStatus `json:"from_status"`
	Reason     string              `json:"reason"`
}

// NewPurchaseOrderCancelledEvent creates a new PurchaseOrderCancelledEvent
func NewPurchaseOrderCancelledEvent(order *PurchaseOrder, fromStatus PurchaseOrderStatus) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, aggregateTypePurchaseOrder, order.ID),
		PONumber:        order.PONumber,
		FromStatus:      fromStatus,
		Reason:          order.CancelReason,
	}
}
