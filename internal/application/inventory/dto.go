package inventory

import (
	"time"

	"github.com/backoffice/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemResponse represents an inventory item in API responses
type ItemResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Kind                 string          `json:"kind"`
	Name                 string          `json:"name"`
	SKU                  string          `json:"sku"`
	Quantity             int64           `json:"quantity"`
	UnitCost             decimal.Decimal `json:"unit_cost"`
	TotalValue           decimal.Decimal `json:"total_value"`
	ReorderPoint         int64           `json:"reorder_point"`
	StockState           string          `json:"stock_state"`
	DisplayStatus        string          `json:"display_status"`
	Inactive             bool            `json:"inactive"`
	LinkedPackagingID    *uuid.UUID      `json:"linked_packaging_id,omitempty"`
	PackagingQtyPerUnit  int64           `json:"packaging_qty_per_unit"`
	IncludePackagingCost bool            `json:"include_packaging_cost"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Version              int             `json:"version"`
}

// ToItemResponse converts a domain item to a response DTO
func ToItemResponse(item *inventory.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:                   item.ID,
		Kind:                 item.Kind.String(),
		Name:                 item.Name,
		SKU:                  item.SKU,
		Quantity:             item.Quantity,
		UnitCost:             item.UnitCost,
		TotalValue:           item.TotalValue().Amount(),
		ReorderPoint:         item.ReorderPoint,
		StockState:           string(item.StockState()),
		DisplayStatus:        item.DisplayStatus(),
		Inactive:             item.Inactive,
		LinkedPackagingID:    item.LinkedPackagingID,
		PackagingQtyPerUnit:  item.PackagingQtyPerUnit,
		IncludePackagingCost: item.IncludePackagingCost,
		CreatedAt:            item.CreatedAt,
		UpdatedAt:            item.UpdatedAt,
		Version:              item.GetVersion(),
	}
}

// ToItemResponses converts a slice of domain items
func ToItemResponses(items []inventory.InventoryItem) []ItemResponse {
	responses := make([]ItemResponse, 0, len(items))
	for idx := range items {
		responses = append(responses, ToItemResponse(&items[idx]))
	}
	return responses
}

// DefineItemRequest creates a new stock-keeping unit with zero quantity
type DefineItemRequest struct {
	Kind string `json:"kind" binding:"required,oneof=PRODUCT PACKAGING"`
	Name string `json:"name" binding:"required,max=200"`
	SKU  string `json:"sku" binding:"required,max=50"`
}

// ItemListFilter represents filter options for the item list
type ItemListFilter struct {
	Search        string `form:"search"`
	Kind          string `form:"kind" binding:"omitempty,oneof=PRODUCT PACKAGING"`
	StockState    string `form:"stock_state" binding:"omitempty,oneof=OUT_OF_STOCK LOW_STOCK IN_STOCK"`
	IncludeHidden bool   `form:"include_hidden"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SetReorderPointRequest sets the low-stock threshold of an item
type SetReorderPointRequest struct {
	ReorderPoint int64 `json:"reorder_point" binding:"min=0"`
}

// LinkPackagingRequest links a packaging material to a product
type LinkPackagingRequest struct {
	PackagingItemID      uuid.UUID `json:"packaging_item_id" binding:"required"`
	QuantityPerUnit      int64     `json:"quantity_per_unit" binding:"required,min=1"`
	IncludePackagingCost bool      `json:"include_packaging_cost"`
}

// CreditRequest credits a replenishment batch to an item
type CreditRequest struct {
	ItemID        uuid.UUID       `json:"item_id" binding:"required"`
	Quantity      int64           `json:"quantity" binding:"required"`
	BatchUnitCost decimal.Decimal `json:"batch_unit_cost"`
}

// DebitRequest removes stock from an item
type DebitRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int64     `json:"quantity" binding:"required"`
}

// LedgerMutationResponse reports the item balance after a credit or debit
type LedgerMutationResponse struct {
	ItemID      uuid.UUID       `json:"item_id"`
	NewQuantity int64           `json:"new_quantity"`
	NewUnitCost decimal.Decimal `json:"new_unit_cost"`
	StockState  string          `json:"stock_state"`
}

// RecordReplenishmentRequest records a manual stock-in batch
type RecordReplenishmentRequest struct {
	ItemID    uuid.UUID       `json:"item_id" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required"`
	BatchCost decimal.Decimal `json:"batch_cost"`
	Date      *time.Time      `json:"date"`
	// BatchRef is an optional client-supplied key. A retried request
	// carrying the same ref books under the same reference ID instead
	// of creating a second batch.
	BatchRef *uuid.UUID `json:"batch_ref"`
}

// ReplenishmentEventResponse represents a replenishment audit record
type ReplenishmentEventResponse struct {
	ID                 uuid.UUID       `json:"id"`
	InventoryItemID    uuid.UUID       `json:"inventory_item_id"`
	Quantity           int64           `json:"quantity"`
	BatchCost          decimal.Decimal `json:"batch_cost"`
	BatchUnitCost      decimal.Decimal `json:"batch_unit_cost"`
	BalanceBefore      int64           `json:"balance_before"`
	BalanceAfter       int64           `json:"balance_after"`
	UnitCostAfter      decimal.Decimal `json:"unit_cost_after"`
	Source             string          `json:"source"`
	SourcePOItemID     *uuid.UUID      `json:"source_po_item_id,omitempty"`
	PONumber           string          `json:"po_number,omitempty"`
	BookkeepingEntryID *string         `json:"bookkeeping_entry_id,omitempty"`
	OccurredOn         time.Time       `json:"occurred_on"`
}

// ToReplenishmentEventResponse converts a domain event to a response DTO
func ToReplenishmentEventResponse(event *inventory.ReplenishmentEvent) ReplenishmentEventResponse {
	return ReplenishmentEventResponse{
		ID:                 event.ID,
		InventoryItemID:    event.InventoryItemID,
		Quantity:           event.Quantity,
		BatchCost:          event.BatchCost,
		BatchUnitCost:      event.BatchUnitCost,
		BalanceBefore:      event.BalanceBefore,
		BalanceAfter:       event.BalanceAfter,
		UnitCostAfter:      event.UnitCostAfter,
		Source:             event.Source.String(),
		SourcePOItemID:     event.SourcePOItemID,
		PONumber:           event.PONumber,
		BookkeepingEntryID: event.BookkeepingEntryID,
		OccurredOn:         event.OccurredOn,
	}
}

// ToReplenishmentEventResponses converts a slice of domain events
func ToReplenishmentEventResponses(events []inventory.ReplenishmentEvent) []ReplenishmentEventResponse {
	responses := make([]ReplenishmentEventResponse, 0, len(events))
	for idx := range events {
		responses = append(responses, ToReplenishmentEventResponse(&events[idx]))
	}
	return responses
}

// ReplenishmentHistoryResponse is an item's chronological replenishment
// history plus its current ledger summary
type ReplenishmentHistoryResponse struct {
	Item   ItemResponse                 `json:"item"`
	Events []ReplenishmentEventResponse `json:"events"`
	Total  int64                        `json:"total"`
}
