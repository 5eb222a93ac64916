package views

import (
	"errors"
	"testing"
	"time"

	"TickerCard/internal/model"
	"TickerCard/internal/store"
)

type fakeReader struct {
	snap model.Snapshot
	err  error
}

func (f fakeReader) Load() (model.Snapshot, error) { return f.snap, f.err }

func ts(min int) time.Time {
	return time.Date(2024, 1, 5, 9, 30+min, 0, 0, time.UTC)
}

func highRows(rates ...float64) model.Snapshot {
	// provider order: newest first
	snap := model.Snapshot{}
	for i := len(rates) - 1; i >= 0; i-- {
		snap = append(snap,
			model.QuoteRow{Indicator: model.IndicatorOpen, Date: ts(i), Rate: rates[i] - 1},
			model.QuoteRow{Indicator: model.IndicatorHigh, Date: ts(i), Rate: rates[i]},
		)
	}
	return snap
}

func TestViews_Session(t *testing.T) {
	src := fakeReader{snap: highRows(100.0, 101.0, 99.5)}

	ind := Indicator(src)
	if ind.Reference != 100.0 || ind.Value != 99.5 {
		t.Errorf("indicator: expected 99.5 vs 100, got %+v", ind)
	}
	if ind.DeltaPercent != -0.5 {
		t.Errorf("indicator: expected -0.5%%, got %v", ind.DeltaPercent)
	}
	if ind.Polarity != model.PolarityDecreasing {
		t.Errorf("indicator: expected decreasing, got %s", ind.Polarity)
	}

	line := Line(src)
	if line.Color != model.ColorRed || line.Fill != model.FillToZeroY {
		t.Errorf("line: expected red tozeroy, got %s %s", line.Color, line.Fill)
	}
	if len(line.Points) != 3 || line.Points[0].Rate != 100.0 || line.Points[2].Rate != 99.5 {
		t.Errorf("line: unexpected points %+v", line.Points)
	}
	if line.YMin != 99.5 || line.YMax != 101.0 {
		t.Errorf("line: expected range 99.5..101, got %v..%v", line.YMin, line.YMax)
	}

	price := PriceLabel(src)
	if price.Recent != 99.5 || price.Older != 101.0 || price.Style != model.StyleDown {
		t.Errorf("price: expected 99.5 down vs 101, got %+v", price)
	}
	if price.Text != "$99.50" {
		t.Errorf("price: unexpected text %q", price.Text)
	}
}

func TestViews_PolarityAgreement(t *testing.T) {
	tests := [][]float64{
		{100, 101, 99.5},
		{100, 99, 100.5},
		{100, 100},
		{5},
		{3, 2, 1, 0.5},
		{1, 2, 3, 3},
	}
	for _, rates := range tests {
		snap := highRows(rates...)
		ind := BuildIndicator(snap)
		line := BuildLine(snap)
		if ind.Polarity != line.Polarity {
			t.Errorf("%v: indicator %s vs line %s", rates, ind.Polarity, line.Polarity)
		}
		wantColor := model.ColorGreen
		if ind.Polarity == model.PolarityDecreasing {
			wantColor = model.ColorRed
		}
		if line.Color != wantColor {
			t.Errorf("%v: expected %s line, got %s", rates, wantColor, line.Color)
		}
	}
}

func TestViews_SinglePoint(t *testing.T) {
	snap := highRows(42)

	ind := BuildIndicator(snap)
	if ind.DeltaPercent != 0 || ind.Empty {
		t.Errorf("indicator: expected zero delta, got %+v", ind)
	}
	line := BuildLine(snap)
	if len(line.Points) != 1 || line.Empty {
		t.Errorf("line: expected single point, got %+v", line)
	}
	price := BuildPriceLabel(snap)
	if price.Style != model.StyleNeutral || price.Text != "$42.00" {
		t.Errorf("price: expected neutral $42.00, got %+v", price)
	}
}

func TestViews_EmptySnapshot(t *testing.T) {
	src := fakeReader{snap: model.Snapshot{}}
	if ind := Indicator(src); !ind.Empty || ind.DeltaPercent != 0 {
		t.Errorf("indicator: expected empty, got %+v", ind)
	}
	if line := Line(src); !line.Empty || len(line.Points) != 0 {
		t.Errorf("line: expected empty, got %+v", line)
	}
	if price := PriceLabel(src); !price.Empty || price.Style != model.StyleNeutral {
		t.Errorf("price: expected empty neutral, got %+v", price)
	}
}

func TestViews_StoreFailureFailsClosed(t *testing.T) {
	for _, err := range []error{store.ErrNoSnapshot, store.ErrCorrupt, errors.New("disk gone")} {
		src := fakeReader{err: err}
		if !Indicator(src).Empty || !Line(src).Empty || !PriceLabel(src).Empty {
			t.Errorf("%v: expected empty artifacts", err)
		}
	}
}

func TestPriceLabel_Styles(t *testing.T) {
	tests := []struct {
		rates []float64
		want  model.PriceStyle
	}{
		{[]float64{100, 101}, model.StyleUp},
		{[]float64{100, 100}, model.StyleNeutral},
		{[]float64{101, 100}, model.StyleDown},
	}
	for _, tt := range tests {
		if got := BuildPriceLabel(highRows(tt.rates...)).Style; got != tt.want {
			t.Errorf("%v: expected %s, got %s", tt.rates, tt.want, got)
		}
	}
}
