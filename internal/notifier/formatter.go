package notifier

import (
	"fmt"
	"strings"
	"time"

	"TickerCard/internal/model"
)

var styleMarks = map[model.PriceStyle]string{
	model.StyleUp:      "🟢",
	model.StyleNeutral: "⚪",
	model.StyleDown:    "🔴",
}

// FormatCard renders the three widgets as a Telegram message.
func FormatCard(card *model.Card) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>%s</b>", card.Symbol))
	if !card.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf(" | %s", card.UpdatedAt.Format("2006-01-02 15:04")))
	}
	b.WriteString("\n\n")

	if card.PriceLabel.Empty {
		b.WriteString("No data yet\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("High: %s %s\n", styleMarks[card.PriceLabel.Style], card.PriceLabel.Text))

	ind := card.Indicator
	arrow := "▲"
	if ind.Polarity == model.PolarityDecreasing {
		arrow = "▼"
	}
	b.WriteString(fmt.Sprintf("Day: %s %+.2f%% (%.2f → %.2f)\n", arrow, ind.DeltaPercent, ind.Reference, ind.Value))

	if n := len(card.Line.Points); n > 0 {
		b.WriteString(fmt.Sprintf("Range: %.2f – %.2f over %d bars\n", card.Line.YMin, card.Line.YMax, n))
		b.WriteString(Sparkline(card.Line.Points))
		b.WriteString("\n")
	}
	return b.String()
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws points as a one-line block chart.
func Sparkline(points []model.LinePoint) string {
	if len(points) == 0 {
		return ""
	}
	lo, hi := points[0].Rate, points[0].Rate
	for _, p := range points {
		if p.Rate < lo {
			lo = p.Rate
		}
		if p.Rate > hi {
			hi = p.Rate
		}
	}
	out := make([]rune, len(points))
	for i, p := range points {
		idx := 0
		if hi > lo {
			idx = int((p.Rate - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}

// FormatStatus describes the last refresh cycle.
func FormatStatus(res *model.RefreshResult, running bool) string {
	var b strings.Builder
	b.WriteString("🛰 <b>Refresh status</b>\n\n")
	if running {
		b.WriteString("A refresh is in flight\n")
	}
	if res == nil {
		b.WriteString("No refresh has completed yet\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Last: %s (%s)\n", res.Status, res.Trigger))
	b.WriteString(fmt.Sprintf("At: %s, took %v\n", res.StartedAt.Format("2006-01-02 15:04:05"), res.Duration.Round(time.Millisecond)))
	if res.Err != nil {
		b.WriteString(fmt.Sprintf("Error: %v\n", res.Err))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", res.Rows))
	}
	return b.String()
}

// FormatCounts summarizes refresh outcomes per status, e.g. "OK 470, RATE_LIMITED 3".
func FormatCounts(counts map[model.RefreshStatus]int) string {
	parts := make([]string, 0, len(counts))
	for _, st := range model.RefreshStatuses {
		if n := counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", st, n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
