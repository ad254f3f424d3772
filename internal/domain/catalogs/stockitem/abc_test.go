package stockitem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktally/internal/core/types"
)

func valuedItem(cost string, qty int) *StockItem {
	item := NewStockItem("ACME", "P", "C", "S")
	item.UnitCost = types.MustMoney(cost)
	item.Quantity = qty
	return item
}

func TestClassifyABC(t *testing.T) {
	// Values: 800, 150, 30, 20 of a 1000 total.
	a := valuedItem("8.00", 100)
	b := valuedItem("1.50", 100)
	c1 := valuedItem("0.30", 100)
	c2 := valuedItem("0.20", 100)

	groups := ClassifyABC([]*StockItem{c2, a, c1, b})
	require.Len(t, groups, 4)

	assert.Equal(t, GroupA, groups[a.ID])
	assert.Equal(t, GroupB, groups[b.ID])
	assert.Equal(t, GroupC, groups[c1.ID])
	assert.Equal(t, GroupC, groups[c2.ID])
}

func TestClassifyABC_SingleItem(t *testing.T) {
	item := valuedItem("10.00", 5)

	groups := ClassifyABC([]*StockItem{item})

	assert.Equal(t, GroupA, groups[item.ID])
}

func TestClassifyABC_ZeroValue(t *testing.T) {
	stocked := valuedItem("10.00", 5)
	worthless := valuedItem("0", 100)
	empty := valuedItem("10.00", 0)

	groups := ClassifyABC([]*StockItem{stocked, worthless, empty})

	assert.Equal(t, GroupA, groups[stocked.ID])
	assert.Equal(t, GroupC, groups[worthless.ID])
	assert.Equal(t, GroupC, groups[empty.ID])
}

func TestClassifyABC_AllZero(t *testing.T) {
	items := []*StockItem{valuedItem("0", 0), valuedItem("0", 10)}

	groups := ClassifyABC(items)

	for _, item := range items {
		assert.Equal(t, GroupC, groups[item.ID])
	}
}
