package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWeightedAverageUnitCost(t *testing.T) {
	t.Run("blends new batch into existing stock", func(t *testing.T) {
		// 10 units at 2.00 plus 5 units at 5.00 = 45.00 / 15 = 3.00
		got := WeightedAverageUnitCost(10, decimal.NewFromFloat(2.00), 5, decimal.NewFromFloat(5.00))

		assert.Equal(t, "3", got.String())
	})

	t.Run("first batch sets the unit cost as-is", func(t *testing.T) {
		got := WeightedAverageUnitCost(0, decimal.Zero, 100, decimal.NewFromFloat(7.25))

		assert.Equal(t, "7.25", got.String())
	})

	t.Run("rounds to four decimal places", func(t *testing.T) {
		// (10*1.00 + 20*2.00) / 30 = 1.6666...
		got := WeightedAverageUnitCost(10, decimal.NewFromFloat(1.00), 20, decimal.NewFromFloat(2.00))

		assert.Equal(t, "1.6667", got.String())
	})

	t.Run("equal cost batch leaves cost unchanged", func(t *testing.T) {
		got := WeightedAverageUnitCost(50, decimal.NewFromFloat(3.50), 50, decimal.NewFromFloat(3.50))

		assert.True(t, decimal.NewFromFloat(3.50).Equal(got))
	})
}

func TestBatchUnitCost(t *testing.T) {
	t.Run("divides batch cost by quantity", func(t *testing.T) {
		got := BatchUnitCost(decimal.NewFromFloat(25.00), 10)

		assert.Equal(t, "2.5", got.String())
	})

	t.Run("rounds repeating quotients", func(t *testing.T) {
		got := BatchUnitCost(decimal.NewFromFloat(10.00), 3)

		assert.Equal(t, "3.3333", got.String())
	})

	t.Run("zero quantity returns zero", func(t *testing.T) {
		got := BatchUnitCost(decimal.NewFromFloat(10.00), 0)

		assert.True(t, got.IsZero())
	})
}

func TestCompositeUnitCost(t *testing.T) {
	t.Run("adds packaging share to base cost", func(t *testing.T) {
		// 12.00 + 0.25 * 2 = 12.50
		got := CompositeUnitCost(decimal.NewFromFloat(12.00), decimal.NewFromFloat(0.25), 2)

		assert.Equal(t, "12.5", got.String())
	})

	t.Run("non-positive packaging quantity returns base cost", func(t *testing.T) {
		base := decimal.NewFromFloat(9.99)

		assert.True(t, base.Equal(CompositeUnitCost(base, decimal.NewFromFloat(1.00), 0)))
	})
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(12, decimal.NewFromFloat(1.75))

	assert.Equal(t, "21", got.String())
}
