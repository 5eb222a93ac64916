package views

import (
	"TickerCard/internal/calculator"
	"TickerCard/internal/model"
)

// Indicator computes the percent-change widget from the current snapshot.
func Indicator(src SnapshotReader) model.IndicatorFigure {
	snap, ok := load(src, "indicator")
	if !ok {
		return EmptyIndicator()
	}
	return BuildIndicator(snap)
}

// BuildIndicator compares day_end against day_start of the "high" series.
func BuildIndicator(snap model.Snapshot) model.IndicatorFigure {
	m, ok := calculator.DayRange(calculator.Chronological(calculator.HighSeries(snap)))
	if !ok {
		return EmptyIndicator()
	}
	return model.IndicatorFigure{
		Value:        m.DayEnd,
		Reference:    m.DayStart,
		DeltaPercent: calculator.PercentDelta(m.DayEnd, m.DayStart),
		Polarity:     calculator.PolarityOf(m),
	}
}

// EmptyIndicator is the neutral placeholder.
func EmptyIndicator() model.IndicatorFigure {
	return model.IndicatorFigure{Polarity: model.PolarityIncreasing, Empty: true}
}
