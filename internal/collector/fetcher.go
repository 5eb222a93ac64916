package collector

import (
	"context"
	"errors"

	"TickerCard/internal/model"
)

var (
	// ErrNetwork covers unreachable provider, timeouts and non-200 responses.
	ErrNetwork = errors.New("provider unreachable")
	// ErrRateLimited is returned when the provider answers with a throttle notice.
	ErrRateLimited = errors.New("provider rate limit")
	// ErrMalformed is returned when the response does not have the expected shape.
	ErrMalformed = errors.New("malformed provider response")
)

// Fetcher defines the interface for fetching intraday bars.
// Bars are returned in provider order, newest first.
type Fetcher interface {
	FetchIntraday(ctx context.Context, symbol, interval, outputSize string) (model.SeriesMeta, []model.OHLCV, error)
	Name() string
}

// Status maps a refresh error onto the refresh outcome taxonomy.
func Status(err error) model.RefreshStatus {
	switch {
	case err == nil:
		return model.RefreshOK
	case errors.Is(err, ErrRateLimited):
		return model.RefreshRateLimited
	case errors.Is(err, ErrMalformed):
		return model.RefreshMalformed
	default:
		return model.RefreshNetwork
	}
}
