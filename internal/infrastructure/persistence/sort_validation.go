package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed
// fields. Returns the defaultField if the input is invalid, empty, or not in
// the whitelist. Sort fields reach the ORDER BY clause verbatim, so the
// whitelist is the injection guard.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// InventoryItemSortFields contains allowed sort fields for inventory items
var InventoryItemSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"name":          true,
	"sku":           true,
	"kind":          true,
	"quantity":      true,
	"unit_cost":     true,
	"reorder_point": true,
}

// ReplenishmentEventSortFields contains allowed sort fields for replenishment events
var ReplenishmentEventSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"occurred_on": true,
	"quantity":    true,
	"batch_cost":  true,
	"source":      true,
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"po_number":         true,
	"supplier":          true,
	"status":            true,
	"order_date":        true,
	"expected_delivery": true,
	"actual_delivery":   true,
	"total_cost":        true,
}

// ReconciliationTaskSortFields contains allowed sort fields for reconciliation tasks
var ReconciliationTaskSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"po_number":  true,
	"status":     true,
	"attempts":   true,
}
