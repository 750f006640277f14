package inventory

import (
	"github.com/shopspring/decimal"
)

// costScale is the number of decimal places kept for unit costs.
const costScale = 4

// WeightedAverageUnitCost recomputes an item's unit cost after a stock-in
// batch blends into the existing quantity:
//
//	(oldQty*oldCost + addQty*addUnitCost) / (oldQty + addQty)
//
// When the item held no stock, the batch cost becomes the unit cost as-is.
func WeightedAverageUnitCost(oldQty int64, oldCost decimal.Decimal, addQty int64, addUnitCost decimal.Decimal) decimal.Decimal {
	if oldQty <= 0 {
		return addUnitCost
	}
	oldQuantity := decimal.NewFromInt(oldQty)
	addQuantity := decimal.NewFromInt(addQty)
	totalValue := oldQuantity.Mul(oldCost).Add(addQuantity.Mul(addUnitCost))
	return totalValue.Div(oldQuantity.Add(addQuantity)).Round(costScale)
}

// BatchUnitCost derives the per-unit cost of a replenishment batch from its
// total cost. Quantity must be positive; callers validate before computing.
func BatchUnitCost(batchCost decimal.Decimal, quantity int64) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return batchCost.Div(decimal.NewFromInt(quantity)).Round(costScale)
}

// CompositeUnitCost returns a product's cost basis including its linked
// packaging: baseCost + packagingUnitCost * packagingQtyPerUnit.
func CompositeUnitCost(baseCost, packagingUnitCost decimal.Decimal, packagingQtyPerUnit int64) decimal.Decimal {
	if packagingQtyPerUnit <= 0 {
		return baseCost
	}
	return baseCost.Add(packagingUnitCost.Mul(decimal.NewFromInt(packagingQtyPerUnit))).Round(costScale)
}

// LineTotal returns quantity * unitCost for an order line.
func LineTotal(quantity int64, unitCost decimal.Decimal) decimal.Decimal {
	return unitCost.Mul(decimal.NewFromInt(quantity))
}
