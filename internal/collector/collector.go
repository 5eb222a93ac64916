package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"TickerCard/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Symbol string
	Price  float64
	Bars   []model.OHLCV
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchIntraday(ctx context.Context, symbol, interval, _ string) (model.SeriesMeta, []model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return model.SeriesMeta{}, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if m.Err != nil {
		return model.SeriesMeta{}, nil, m.Err
	}
	meta := model.SeriesMeta{Symbol: symbol, Interval: interval, TimeZone: "UTC"}
	if m.Symbol != "" {
		meta.Symbol = m.Symbol
	}
	if m.Bars != nil {
		return meta, m.Bars, nil
	}
	return meta, generateMockBars(m.Price, 100), nil
}

// generateMockBars produces one-minute bars ending now, newest first.
func generateMockBars(basePrice float64, count int) []model.OHLCV {
	now := time.Now().Truncate(time.Minute)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(count/2-i)*0.001)
		bars[i] = model.OHLCV{
			Time:   now.Add(-time.Duration(i) * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000,
		}
	}
	return bars
}

// Unpivot turns column-per-field bars into (indicator, date, rate) rows.
// For each bar, in the given order, rows are emitted open, high, low, close;
// volume is dropped.
func Unpivot(bars []model.OHLCV) model.Snapshot {
	snap := make(model.Snapshot, 0, len(bars)*len(model.PriceIndicators))
	for _, b := range bars {
		snap = append(snap,
			model.QuoteRow{Indicator: model.IndicatorOpen, Date: b.Time, Rate: b.Open},
			model.QuoteRow{Indicator: model.IndicatorHigh, Date: b.Time, Rate: b.High},
			model.QuoteRow{Indicator: model.IndicatorLow, Date: b.Time, Rate: b.Low},
			model.QuoteRow{Indicator: model.IndicatorClose, Date: b.Time, Rate: b.Close},
		)
	}
	return snap
}

// SnapshotWriter is the write side of the snapshot store.
type SnapshotWriter interface {
	Save(snap model.Snapshot) error
}

// Collector fetches one symbol's intraday series and replaces the snapshot.
type Collector struct {
	Fetcher    Fetcher
	Store      SnapshotWriter
	Symbol     string
	Interval   string
	OutputSize string
	Timeout    time.Duration
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, store SnapshotWriter, symbol, interval, outputSize string, timeout time.Duration) *Collector {
	return &Collector{
		Fetcher:    fetcher,
		Store:      store,
		Symbol:     symbol,
		Interval:   interval,
		OutputSize: outputSize,
		Timeout:    timeout,
	}
}

// Collect fetches and reshapes the series without touching the store.
func (c *Collector) Collect(ctx context.Context) (model.Snapshot, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	meta, bars, err := c.Fetcher.FetchIntraday(ctx, c.Symbol, c.Interval, c.OutputSize)
	if err != nil {
		return nil, fmt.Errorf("fetch intraday: %w", err)
	}
	if meta.Symbol != "" && !strings.EqualFold(meta.Symbol, c.Symbol) {
		return nil, fmt.Errorf("%w: got symbol %q, want %q", ErrMalformed, meta.Symbol, c.Symbol)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars returned", ErrMalformed)
	}
	session := SessionBars(meta, bars)
	if dropped := len(bars) - len(session); dropped > 0 {
		log.Printf("[INFO] dropped %d bars from earlier sessions", dropped)
	}
	return Unpivot(session), nil
}

// SessionBars keeps the bars of the current trading session: those dated,
// in the provider's time zone, on the day of meta.LastRefreshed. When the
// provider reports no usable refresh time the newest bar's day is used.
// A compact request early in the day otherwise reaches into the previous
// session.
func SessionBars(meta model.SeriesMeta, bars []model.OHLCV) []model.OHLCV {
	if len(bars) == 0 {
		return bars
	}
	newest := bars[0].Time
	for _, b := range bars[1:] {
		if b.Time.After(newest) {
			newest = b.Time
		}
	}

	out := sameDay(bars, meta.LastRefreshed)
	if len(out) == 0 {
		out = sameDay(bars, newest)
	}
	return out
}

func sameDay(bars []model.OHLCV, ref time.Time) []model.OHLCV {
	if ref.IsZero() {
		return nil
	}
	y, m, d := ref.Date()
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		by, bm, bd := b.Time.In(ref.Location()).Date()
		if by == y && bm == m && bd == d {
			out = append(out, b)
		}
	}
	return out
}

// Refresh runs one fetch and, only on success, overwrites the snapshot.
// The previous snapshot is left intact on any failure.
func (c *Collector) Refresh(ctx context.Context, trigger model.TriggerType) *model.RefreshResult {
	res := &model.RefreshResult{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Symbol:    c.Symbol,
		StartedAt: time.Now(),
	}
	defer func() { res.Duration = time.Since(res.StartedAt) }()

	snap, err := c.Collect(ctx)
	if err != nil {
		res.Err = err
		res.Status = Status(err)
		return res
	}
	if err := c.Store.Save(snap); err != nil {
		res.Err = fmt.Errorf("save snapshot: %w", err)
		res.Status = model.RefreshStoreFailed
		return res
	}
	res.Rows = len(snap)
	res.Snapshot = snap
	res.Status = model.RefreshOK
	log.Printf("[INFO] refresh %s: %d rows for %s via %s", res.ID, res.Rows, c.Symbol, c.Fetcher.Name())
	return res
}
