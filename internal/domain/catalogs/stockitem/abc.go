package stockitem

import (
	"sort"

	"github.com/shopspring/decimal"

	"stocktally/internal/core/id"
)

// Pareto cutoffs for ABC classification, in percent of total stock value.
const (
	groupACutoffPct = 80.0
	groupBCutoffPct = 95.0
)

// ClassifyABC assigns Pareto groups by stock value (quantity times unit
// cost): items covering the first 80% of total value are A, the next 15%
// are B, the rest C. Items with zero value land in C.
func ClassifyABC(items []*StockItem) map[id.ID]ABCGroup {
	type valued struct {
		id    id.ID
		value decimal.Decimal
	}

	total := decimal.Zero
	ranked := make([]valued, 0, len(items))
	for _, item := range items {
		v := item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity)))
		ranked = append(ranked, valued{id: item.ID, value: v})
		total = total.Add(v)
	}

	groups := make(map[id.ID]ABCGroup, len(ranked))
	if total.IsZero() {
		for _, r := range ranked {
			groups[r.id] = GroupC
		}
		return groups
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].value.GreaterThan(ranked[j].value)
	})

	hundred := decimal.NewFromInt(100)
	cutoffA := decimal.NewFromFloat(groupACutoffPct)
	cutoffB := decimal.NewFromFloat(groupBCutoffPct)

	// An item is graded by the value share accumulated before it, so the
	// item that crosses a cutoff still belongs to the richer group.
	cumulative := decimal.Zero
	for _, r := range ranked {
		pct := cumulative.Mul(hundred).Div(total)
		cumulative = cumulative.Add(r.value)

		switch {
		case r.value.IsZero():
			groups[r.id] = GroupC
		case pct.LessThan(cutoffA):
			groups[r.id] = GroupA
		case pct.LessThan(cutoffB):
			groups[r.id] = GroupB
		default:
			groups[r.id] = GroupC
		}
	}
	return groups
}
