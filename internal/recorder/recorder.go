package recorder

import (
	"time"

	"TickerCard/internal/model"
)

// CardEvent holds the derived values of one card recompute.
type CardEvent struct {
	RefreshID    string
	Symbol       string
	DayStart     float64
	DayEnd       float64
	DeltaPercent float64
	Polarity     string
	PriceText    string
	PriceStyle   string
	Points       int
}

// NewCardEvent flattens a card for recording.
func NewCardEvent(refreshID string, card *model.Card) *CardEvent {
	return &CardEvent{
		RefreshID:    refreshID,
		Symbol:       card.Symbol,
		DayStart:     card.Indicator.Reference,
		DayEnd:       card.Indicator.Value,
		DeltaPercent: card.Indicator.DeltaPercent,
		Polarity:     string(card.Indicator.Polarity),
		PriceText:    card.PriceLabel.Text,
		PriceStyle:   string(card.PriceLabel.Style),
		Points:       len(card.Line.Points),
	}
}

// Recorder persists refresh history for later analysis.
type Recorder interface {
	RecordRefresh(res *model.RefreshResult) error
	RecordCard(evt *CardEvent) error
	// RefreshCounts returns the number of recorded cycles per status since t.
	RefreshCounts(since time.Time) (map[model.RefreshStatus]int, error)
	Close() error
}
