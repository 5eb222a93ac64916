package dashboard

import (
	"context"
	"log"
	"sync"
	"time"

	"TickerCard/internal/events"
	"TickerCard/internal/model"
	"TickerCard/internal/recorder"
	"TickerCard/internal/views"
)

// UpdateFunc is called after every completed card recompute.
type UpdateFunc func(prev, next model.Card)

type viewPart uint8

const (
	partIndicator viewPart = 1 << iota
	partLine
	partPrice

	allParts = partIndicator | partLine | partPrice
)

type viewResult struct {
	seq       uint64
	refreshID string
	part      viewPart
	apply     func(*model.Card)
}

// pendingCard collects the parts computed for one snapshot update.
type pendingCard struct {
	refreshID string
	parts     viewPart
	card      model.Card
}

// Dashboard keeps the latest card. Each derived view subscribes to snapshot
// updates on its own and computes its artifact from the snapshot carried by
// the event. An assembler publishes the card once all three views have
// reported for the same update.
type Dashboard struct {
	Symbol   string
	Store    views.SnapshotReader
	Recorder recorder.Recorder

	mu        sync.RWMutex
	card      model.Card
	listeners []UpdateFunc
}

// New creates a Dashboard holding empty artifacts.
func New(symbol string, src views.SnapshotReader, rec recorder.Recorder) *Dashboard {
	return &Dashboard{
		Symbol:   symbol,
		Store:    src,
		Recorder: rec,
		card: model.Card{
			Symbol:     symbol,
			Indicator:  views.EmptyIndicator(),
			Line:       views.EmptyLine(),
			PriceLabel: views.EmptyPriceLabel(),
		},
	}
}

// OnUpdate registers fn to run after each card recompute.
func (d *Dashboard) OnUpdate(fn UpdateFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Card returns the latest card.
func (d *Dashboard) Card() model.Card {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.card
}

// Recompute reads the store once, builds the three views concurrently from
// that snapshot and publishes the card.
func (d *Dashboard) Recompute(refreshID string) model.Card {
	snap := views.Read(d.Store)
	var (
		wg   sync.WaitGroup
		ind  model.IndicatorFigure
		line model.LineFigure
		pl   model.PriceLabel
	)
	wg.Add(3)
	go func() { defer wg.Done(); ind = views.BuildIndicator(snap) }()
	go func() { defer wg.Done(); line = views.BuildLine(snap) }()
	go func() { defer wg.Done(); pl = views.BuildPriceLabel(snap) }()
	wg.Wait()

	next := model.Card{Symbol: d.Symbol, Indicator: ind, Line: line, PriceLabel: pl}
	return d.publish(refreshID, next)
}

// Start subscribes each view to the broker and assembles cards in the
// background until ctx is done or the broker closes. The returned channel is
// closed once the assembler has exited.
func (d *Dashboard) Start(ctx context.Context, broker *events.Broker) <-chan struct{} {
	results := make(chan viewResult, 3)
	var wg sync.WaitGroup

	// An event without a snapshot falls back to reading the store.
	workers := []struct {
		part viewPart
		run  func(model.Snapshot) func(*model.Card)
	}{
		{partIndicator, func(snap model.Snapshot) func(*model.Card) {
			if snap == nil {
				f := views.Indicator(d.Store)
				return func(c *model.Card) { c.Indicator = f }
			}
			f := views.BuildIndicator(snap)
			return func(c *model.Card) { c.Indicator = f }
		}},
		{partLine, func(snap model.Snapshot) func(*model.Card) {
			if snap == nil {
				f := views.Line(d.Store)
				return func(c *model.Card) { c.Line = f }
			}
			f := views.BuildLine(snap)
			return func(c *model.Card) { c.Line = f }
		}},
		{partPrice, func(snap model.Snapshot) func(*model.Card) {
			if snap == nil {
				f := views.PriceLabel(d.Store)
				return func(c *model.Card) { c.PriceLabel = f }
			}
			f := views.BuildPriceLabel(snap)
			return func(c *model.Card) { c.PriceLabel = f }
		}},
	}

	for _, w := range workers {
		updates, unsubscribe := broker.Subscribe(1)
		wg.Add(1)
		go func(part viewPart, run func(model.Snapshot) func(*model.Card)) {
			defer wg.Done()
			defer unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case evt, ok := <-updates:
					if !ok {
						return
					}
					r := viewResult{seq: evt.Seq, refreshID: evt.RefreshID, part: part, apply: run(evt.Snapshot)}
					select {
					case results <- r:
					case <-ctx.Done():
						return
					}
				}
			}
		}(w.part, w.run)
	}

	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()

	exited := make(chan struct{})
	go func() {
		defer close(exited)
		d.assemble(ctx, results, workersDone)
	}()
	return exited
}

// assemble publishes a card once every part for one update has arrived.
// Updates complete in increasing Seq order only: when one is published, any
// older incomplete update is dropped, and late parts of an older update are
// ignored. Views only skip stale events, so the newest update always completes.
func (d *Dashboard) assemble(ctx context.Context, results <-chan viewResult, done <-chan struct{}) {
	pending := make(map[uint64]*pendingCard)
	var published uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case r := <-results:
			if r.seq != 0 && r.seq <= published {
				continue
			}
			p, ok := pending[r.seq]
			if !ok {
				p = &pendingCard{refreshID: r.refreshID, card: model.Card{Symbol: d.Symbol}}
				pending[r.seq] = p
			}
			r.apply(&p.card)
			p.parts |= r.part
			if p.parts != allParts {
				continue
			}
			for seq := range pending {
				if seq <= r.seq {
					delete(pending, seq)
				}
			}
			if r.seq > published {
				published = r.seq
			}
			d.publish(p.refreshID, p.card)
		}
	}
}

func (d *Dashboard) publish(refreshID string, next model.Card) model.Card {
	next.UpdatedAt = time.Now()

	d.mu.Lock()
	prev := d.card
	d.card = next
	listeners := append([]UpdateFunc(nil), d.listeners...)
	d.mu.Unlock()

	if d.Recorder != nil {
		if err := d.Recorder.RecordCard(recorder.NewCardEvent(refreshID, &next)); err != nil {
			log.Printf("[ERROR] record card: %v", err)
		}
	}
	log.Printf("[INFO] card updated: %s delta %+.3f%% (%s), price %s (%s)",
		next.Symbol, next.Indicator.DeltaPercent, next.Indicator.Polarity, next.PriceLabel.Text, next.PriceLabel.Style)

	for _, fn := range listeners {
		fn(prev, next)
	}
	return next
}
