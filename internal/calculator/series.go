package calculator

import (
	"sort"

	"TickerCard/internal/model"
)

// HighSeries filters the snapshot to "high" rows.
func HighSeries(snap model.Snapshot) model.Snapshot {
	return snap.Filter(model.IndicatorHigh)
}

// Reverse returns a reversed copy of rows. Reverse(Reverse(x)) equals x.
func Reverse(rows model.Snapshot) model.Snapshot {
	out := make(model.Snapshot, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r
	}
	return out
}

// Chronological turns a provider-ordered (newest first) series into ascending
// time order. Rows sharing a timestamp keep their reversed relative order.
func Chronological(rows model.Snapshot) model.Snapshot {
	out := Reverse(rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// DayRange computes day_start and day_end over a chronological series.
// With fewer than two distinct timestamps start and end coincide.
func DayRange(chrono model.Snapshot) (model.DerivedMetrics, bool) {
	if len(chrono) == 0 {
		return model.DerivedMetrics{}, false
	}
	first, last := chrono[0], chrono[len(chrono)-1]
	if !last.Date.After(first.Date) {
		last = first
	}
	return model.DerivedMetrics{
		DayStart: first.Rate,
		DayEnd:   last.Rate,
		StartAt:  first.Date,
		EndAt:    last.Date,
	}, true
}

// PolarityOf is shared by the indicator and line views so they never disagree.
func PolarityOf(m model.DerivedMetrics) model.Polarity {
	if m.DayEnd >= m.DayStart {
		return model.PolarityIncreasing
	}
	return model.PolarityDecreasing
}
