package model

import "time"

// RefreshStatus is the outcome of one refresh cycle.
type RefreshStatus string

const (
	RefreshOK          RefreshStatus = "OK"
	RefreshNetwork     RefreshStatus = "NETWORK_FAILURE"
	RefreshRateLimited RefreshStatus = "RATE_LIMITED"
	RefreshMalformed   RefreshStatus = "MALFORMED_RESPONSE"
	RefreshStoreFailed RefreshStatus = "STORE_FAILURE"
	RefreshSkipped     RefreshStatus = "SKIPPED"
)

// RefreshStatuses lists every status in reporting order.
var RefreshStatuses = []RefreshStatus{
	RefreshOK, RefreshNetwork, RefreshRateLimited, RefreshMalformed, RefreshStoreFailed, RefreshSkipped,
}

// TriggerType indicates what started a refresh cycle.
type TriggerType string

const (
	TriggerTimer   TriggerType = "TIMER"
	TriggerStartup TriggerType = "STARTUP"
	TriggerManual  TriggerType = "MANUAL"
)

// RefreshResult summarizes one refresh cycle.
type RefreshResult struct {
	ID        string
	Trigger   TriggerType
	Symbol    string
	Status    RefreshStatus
	Rows      int
	Err       error
	StartedAt time.Time
	Duration  time.Duration
	// Snapshot is the table written by a successful refresh.
	Snapshot Snapshot
}

// SnapshotUpdated is emitted after the store has been replaced. Seq grows
// with every published update; Snapshot is the table that was written, so
// every subscriber derives its artifact from the same rows.
type SnapshotUpdated struct {
	Seq       uint64
	RefreshID string
	Symbol    string
	Rows      int
	At        time.Time
	Snapshot  Snapshot
}
