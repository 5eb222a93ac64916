package store

import (
	"bytes"
	"fmt"

	"github.com/gocarina/gocsv"

	"TickerCard/internal/model"
)

// DateLayout is the provider's timestamp layout, reused for the CSV mirror.
const DateLayout = "2006-01-02 15:04:05"

type csvRow struct {
	Indicator string  `csv:"indicator"`
	Date      string  `csv:"date"`
	Rate      float64 `csv:"rate"`
}

func writeCSV(path string, snap model.Snapshot) error {
	rows := make([]*csvRow, 0, len(snap))
	for _, r := range snap {
		rows = append(rows, &csvRow{
			Indicator: string(r.Indicator),
			Date:      r.Date.Format(DateLayout),
			Rate:      r.Rate,
		})
	}
	var buf bytes.Buffer
	if err := gocsv.Marshal(&rows, &buf); err != nil {
		return fmt.Errorf("marshal csv: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}
