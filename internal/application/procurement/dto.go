package procurement

import (
	"time"

	"github.com/backoffice/backend/internal/domain/procurement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItemResponse represents a line item in API responses
type PurchaseOrderItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	PackagingItemID  uuid.UUID       `json:"packaging_item_id"`
	PackagingName    string          `json:"packaging_name"`
	PackagingSKU     string          `json:"packaging_sku"`
	Quantity         int64           `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	SupplierOverride string          `json:"supplier_override,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID               uuid.UUID                   `json:"id"`
	PONumber         string                      `json:"po_number"`
	Supplier         string                      `json:"supplier"`
	Status           string                      `json:"status"`
	OrderDate        time.Time                   `json:"order_date"`
	ExpectedDelivery *time.Time                  `json:"expected_delivery,omitempty"`
	ActualDelivery   *time.Time                  `json:"actual_delivery,omitempty"`
	TotalCost        decimal.Decimal             `json:"total_cost"`
	TotalQuantity    int64                       `json:"total_quantity"`
	Items            []PurchaseOrderItemResponse `json:"items"`
	Notes            string                      `json:"notes,omitempty"`
	CancelReason     string                      `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
	Version          int                         `json:"version"`
}

// ToPurchaseOrderResponse converts a domain order to a response DTO
func ToPurchaseOrderResponse(order *procurement.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, PurchaseOrderItemResponse{
			ID:               item.ID,
			PackagingItemID:  item.PackagingItemID,
			PackagingName:    item.PackagingName,
			PackagingSKU:     item.PackagingSKU,
			Quantity:         item.Quantity,
			UnitCost:         item.UnitCost,
			TotalCost:        item.TotalCost,
			SupplierOverride: item.SupplierOverride,
			Notes:            item.Notes,
		})
	}

	return PurchaseOrderResponse{
		ID:               order.ID,
		PONumber:         order.PONumber,
		Supplier:         order.Supplier,
		Status:           order.Status.String(),
		OrderDate:        order.OrderDate,
		ExpectedDelivery: order.ExpectedDelivery,
		ActualDelivery:   order.ActualDelivery,
		TotalCost:        order.TotalCost,
		TotalQuantity:    order.TotalQuantity(),
		Items:            items,
		Notes:            order.Notes,
		CancelReason:     order.CancelReason,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
		Version:          order.GetVersion(),
	}
}

// ToPurchaseOrderResponses converts a slice of domain orders
func ToPurchaseOrderResponses(orders []procurement.PurchaseOrder) []PurchaseOrderResponse {
	responses := make([]PurchaseOrderResponse, 0, len(orders))
	for idx := range orders {
		responses = append(responses, ToPurchaseOrderResponse(&orders[idx]))
	}
	return responses
}

// CreateOrderItemRequest represents one line of a new purchase order
type CreateOrderItemRequest struct {
	PackagingItemID  uuid.UUID       `json:"packaging_item_id" binding:"required"`
	Quantity         int64           `json:"quantity" binding:"required,min=1"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	SupplierOverride string          `json:"supplier_override" binding:"max=200"`
	Notes            string          `json:"notes" binding:"max=500"`
}

// CreateOrderRequest creates a new purchase order
type CreateOrderRequest struct {
	Supplier         string                   `json:"supplier" binding:"required,max=200"`
	OrderDate        *time.Time               `json:"order_date"`
	ExpectedDelivery *time.Time               `json:"expected_delivery"`
	Notes            string                   `json:"notes"`
	Items            []CreateOrderItemRequest `json:"items" binding:"omitempty,dive"`
}

// AddItemRequest adds a line item to an existing order
type AddItemRequest struct {
	PackagingItemID  uuid.UUID       `json:"packaging_item_id" binding:"required"`
	Quantity         int64           `json:"quantity" binding:"required,min=1"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	SupplierOverride string          `json:"supplier_override" binding:"max=200"`
	Notes            string          `json:"notes" binding:"max=500"`
}

// UpdateItemRequest edits a line item's quantity and/or unit cost
type UpdateItemRequest struct {
	Quantity *int64           `json:"quantity" binding:"omitempty,min=1"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
	Notes    *string          `json:"notes" binding:"omitempty,max=500"`
}

// AdvanceStatusRequest requests a status transition
type AdvanceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CONFIRMED SHIPPED RECEIVED COMPLETED"`
}

// CancelOrderRequest cancels an order with a reason
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED SHIPPED RECEIVED COMPLETED CANCELLED"`
	Supplier string `form:"supplier"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}
