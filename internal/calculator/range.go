package calculator

import (
	"errors"
	"math"

	"TickerCard/internal/model"
)

// RateRange returns the lowest and highest rate in the series.
func RateRange(rows model.Snapshot) (low, high float64, err error) {
	if len(rows) == 0 {
		return 0, 0, errors.New("no rows provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, r := range rows {
		if r.Rate > high {
			high = r.Rate
		}
		if r.Rate < low {
			low = r.Rate
		}
	}
	return low, high, nil
}
