package notifier

import (
	"context"
	"log"

	"TickerCard/internal/model"
)

// Sender delivers a text message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// StyleChangeAlert returns a dashboard update hook that sends the card when
// the price-label style changes between two non-empty cards.
func StyleChangeAlert(ctx context.Context, s Sender) func(prev, next model.Card) {
	return func(prev, next model.Card) {
		if prev.PriceLabel.Empty || next.PriceLabel.Empty {
			return
		}
		if prev.PriceLabel.Style == next.PriceLabel.Style {
			return
		}
		text := FormatCard(&next)
		go func() {
			if err := s.SendWithRetry(ctx, text, 3); err != nil {
				log.Printf("[ERROR] send card alert: %v", err)
			}
		}()
	}
}
