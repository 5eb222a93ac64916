// Package views holds the derived-view computations. Each one reads the
// current snapshot and produces a single rendering artifact. They share no
// mutable state and fail closed to an empty artifact when the store cannot
// be read.
package views

import (
	"log"

	"TickerCard/internal/model"
)

// SnapshotReader is the read side of the snapshot store.
type SnapshotReader interface {
	Load() (model.Snapshot, error)
}

// Read loads the snapshot once for callers that build several views from it.
// A read failure yields a nil snapshot, which every Build function renders empty.
func Read(src SnapshotReader) model.Snapshot {
	snap, _ := load(src, "card")
	return snap
}

func load(src SnapshotReader, view string) (model.Snapshot, bool) {
	snap, err := src.Load()
	if err != nil {
		log.Printf("[WARN] %s view: read snapshot: %v, rendering empty", view, err)
		return nil, false
	}
	return snap, true
}
