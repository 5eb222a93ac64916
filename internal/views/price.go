package views

import (
	"fmt"

	"TickerCard/internal/calculator"
	"TickerCard/internal/model"
)

// PriceLabel computes the colored high-price label from the current snapshot.
func PriceLabel(src SnapshotReader) model.PriceLabel {
	snap, ok := load(src, "price")
	if !ok {
		return EmptyPriceLabel()
	}
	return BuildPriceLabel(snap)
}

// BuildPriceLabel shows the most recent "high" rate, styled against the one before it.
func BuildPriceLabel(snap model.Snapshot) model.PriceLabel {
	recent, older, n := calculator.LatestPair(calculator.HighSeries(snap))
	switch n {
	case 0:
		return EmptyPriceLabel()
	case 1:
		return model.PriceLabel{
			Text:   FormatRate(recent.Rate),
			Style:  model.StyleNeutral,
			Recent: recent.Rate,
			Older:  recent.Rate,
		}
	}
	return model.PriceLabel{
		Text:   FormatRate(recent.Rate),
		Style:  calculator.PriceStyleOf(recent.Rate, older.Rate),
		Recent: recent.Rate,
		Older:  older.Rate,
	}
}

// EmptyPriceLabel is the neutral placeholder.
func EmptyPriceLabel() model.PriceLabel {
	return model.PriceLabel{Text: "-", Style: model.StyleNeutral, Empty: true}
}

// FormatRate renders a rate the way the label displays it.
func FormatRate(rate float64) string {
	return fmt.Sprintf("$%.2f", rate)
}
