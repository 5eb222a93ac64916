package views

import (
	"TickerCard/internal/calculator"
	"TickerCard/internal/model"
)

// Line computes the sparkline widget from the current snapshot.
func Line(src SnapshotReader) model.LineFigure {
	snap, ok := load(src, "line")
	if !ok {
		return EmptyLine()
	}
	return BuildLine(snap)
}

// BuildLine draws the chronological "high" series filled to the baseline.
func BuildLine(snap model.Snapshot) model.LineFigure {
	chrono := calculator.Chronological(calculator.HighSeries(snap))
	m, ok := calculator.DayRange(chrono)
	if !ok {
		return EmptyLine()
	}
	low, high, err := calculator.RateRange(chrono)
	if err != nil {
		return EmptyLine()
	}

	points := make([]model.LinePoint, len(chrono))
	for i, r := range chrono {
		points[i] = model.LinePoint{Date: r.Date, Rate: r.Rate}
	}
	polarity := calculator.PolarityOf(m)
	return model.LineFigure{
		Points:   points,
		YMin:     low,
		YMax:     high,
		Fill:     model.FillToZeroY,
		Color:    polarity.Color(),
		Polarity: polarity,
	}
}

// EmptyLine is the neutral placeholder.
func EmptyLine() model.LineFigure {
	return model.LineFigure{
		Points:   []model.LinePoint{},
		Fill:     model.FillToZeroY,
		Color:    model.ColorGreen,
		Polarity: model.PolarityIncreasing,
		Empty:    true,
	}
}
