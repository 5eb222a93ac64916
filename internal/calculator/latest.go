package calculator

import (
	"sort"

	"TickerCard/internal/model"
)

// LatestPair selects the two rows with the largest timestamps. Rows are ranked
// by timestamp descending; equal timestamps keep snapshot order, so the row
// appearing first wins. n reports how many rows were available (0, 1 or 2).
func LatestPair(rows model.Snapshot) (recent, older model.QuoteRow, n int) {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rows[idx[a]].Date.After(rows[idx[b]].Date)
	})
	switch len(idx) {
	case 0:
		return model.QuoteRow{}, model.QuoteRow{}, 0
	case 1:
		return rows[idx[0]], model.QuoteRow{}, 1
	}
	return rows[idx[0]], rows[idx[1]], 2
}

// PriceStyleOf compares the newer rate against the older one.
func PriceStyleOf(recent, older float64) model.PriceStyle {
	switch {
	case recent > older:
		return model.StyleUp
	case recent < older:
		return model.StyleDown
	default:
		return model.StyleNeutral
	}
}
