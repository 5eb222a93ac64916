package model

import "time"

// Indicator names the price field a QuoteRow carries.
type Indicator string

const (
	IndicatorOpen   Indicator = "open"
	IndicatorHigh   Indicator = "high"
	IndicatorLow    Indicator = "low"
	IndicatorClose  Indicator = "close"
	IndicatorVolume Indicator = "volume"
)

// PriceIndicators lists the fields kept in a Snapshot, in emission order.
var PriceIndicators = []Indicator{IndicatorOpen, IndicatorHigh, IndicatorLow, IndicatorClose}

// Valid reports whether the indicator may appear in a Snapshot.
func (i Indicator) Valid() bool {
	switch i {
	case IndicatorOpen, IndicatorHigh, IndicatorLow, IndicatorClose:
		return true
	}
	return false
}

// OHLCV represents a single intraday bar as returned by the provider.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// QuoteRow is one unpivoted (indicator, date, rate) observation.
type QuoteRow struct {
	Indicator Indicator `json:"indicator"`
	Date      time.Time `json:"date"`
	Rate      float64   `json:"rate"`
}

// Snapshot is the full normalized quote table as of the last successful refresh.
// Rows keep provider order (newest timestamp first).
type Snapshot []QuoteRow

// Filter returns the rows for a single indicator, preserving order.
func (s Snapshot) Filter(ind Indicator) Snapshot {
	out := make(Snapshot, 0, len(s)/4+1)
	for _, r := range s {
		if r.Indicator == ind {
			out = append(out, r)
		}
	}
	return out
}

// SeriesMeta describes the provider series a Snapshot was built from.
type SeriesMeta struct {
	Symbol        string
	Interval      string
	OutputSize    string
	TimeZone      string
	LastRefreshed time.Time
}
