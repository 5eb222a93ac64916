package recorder

import (
	"time"

	"TickerCard/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRefresh(_ *model.RefreshResult) error { return nil }
func (n *NoopRecorder) RecordCard(_ *CardEvent) error               { return nil }
func (n *NoopRecorder) Close() error                                { return nil }

func (n *NoopRecorder) RefreshCounts(_ time.Time) (map[model.RefreshStatus]int, error) {
	return map[model.RefreshStatus]int{}, nil
}
