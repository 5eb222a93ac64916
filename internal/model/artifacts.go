package model

import "time"

// Polarity is the visual direction shared by the indicator and line artifacts.
type Polarity string

const (
	PolarityIncreasing Polarity = "increasing"
	PolarityDecreasing Polarity = "decreasing"
)

// Color returns the fill color used by the line artifact for this polarity.
func (p Polarity) Color() string {
	if p == PolarityDecreasing {
		return ColorRed
	}
	return ColorGreen
}

const (
	ColorGreen = "green"
	ColorRed   = "red"
)

// PriceStyle is the styling flag of the price label.
type PriceStyle string

const (
	StyleUp      PriceStyle = "up"
	StyleNeutral PriceStyle = "neutral"
	StyleDown    PriceStyle = "down"
)

// DerivedMetrics are recomputed per trigger and never persisted.
type DerivedMetrics struct {
	DayStart float64
	DayEnd   float64
	StartAt  time.Time
	EndAt    time.Time
}

// IndicatorFigure is the percent-delta widget: Value compared against Reference.
type IndicatorFigure struct {
	Value        float64  `json:"value"`
	Reference    float64  `json:"reference"`
	DeltaPercent float64  `json:"delta_percent"`
	Polarity     Polarity `json:"polarity"`
	Empty        bool     `json:"empty,omitempty"`
}

// LinePoint is one (date, rate) vertex of the sparkline.
type LinePoint struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// LineFigure is the sparkline widget with fill-to-baseline styling.
type LineFigure struct {
	Points   []LinePoint `json:"points"`
	YMin     float64     `json:"y_min"`
	YMax     float64     `json:"y_max"`
	Fill     string      `json:"fill"`
	Color    string      `json:"color"`
	Polarity Polarity    `json:"polarity"`
	Empty    bool        `json:"empty,omitempty"`
}

// FillToZeroY is the only fill mode the sparkline uses.
const FillToZeroY = "tozeroy"

// PriceLabel is the colored high-price text.
type PriceLabel struct {
	Text   string     `json:"text"`
	Style  PriceStyle `json:"style"`
	Recent float64    `json:"recent"`
	Older  float64    `json:"older"`
	Empty  bool       `json:"empty,omitempty"`
}

// Card groups the three artifacts handed to the presentation shell.
type Card struct {
	Symbol     string          `json:"symbol"`
	Indicator  IndicatorFigure `json:"indicator"`
	Line       LineFigure      `json:"line"`
	PriceLabel PriceLabel      `json:"price_label"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
