package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"TickerCard/internal/events"
	"TickerCard/internal/model"
	"TickerCard/internal/recorder"
)

// Refresher runs one refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context, trigger model.TriggerType) *model.RefreshResult
}

// Scheduler is the refresh trigger: it runs the collector on a fixed interval
// with at most one refresh in flight, and announces every successful refresh
// on the broker.
type Scheduler struct {
	Cron      *cron.Cron
	Collector Refresher
	Broker    *events.Broker
	Recorder  recorder.Recorder
	Ctx       context.Context

	running  atomic.Bool
	seq      atomic.Uint64
	inflight sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	last    *model.RefreshResult
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col Refresher, broker *events.Broker, rec recorder.Recorder) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Collector: col,
		Broker:    broker,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// Spec returns the cron spec for a refresh interval given in milliseconds.
func Spec(intervalMs int64) string {
	return fmt.Sprintf("@every %s", time.Duration(intervalMs)*time.Millisecond)
}

// Register schedules the periodic refresh.
func (s *Scheduler) Register(intervalMs int64) error {
	if intervalMs < 1000 {
		return fmt.Errorf("refresh interval %dms is below one second", intervalMs)
	}
	if _, err := s.Cron.AddFunc(Spec(intervalMs), s.timerTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for any running refresh, timer or
// manual, to finish. Later RunNow calls are skipped.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.inflight.Wait()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a refresh immediately. It reports false without fetching
// when another refresh is already in flight or the scheduler has stopped;
// the returned result then has status SKIPPED.
func (s *Scheduler) RunNow(trigger model.TriggerType) (*model.RefreshResult, bool) {
	return s.refresh(trigger)
}

// LastResult returns the most recent completed refresh, or nil.
func (s *Scheduler) LastResult() *model.RefreshResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	res := *s.last
	return &res
}

// Running reports whether a refresh is in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) timerTask() {
	s.refresh(model.TriggerTimer)
}

func (s *Scheduler) refresh(trigger model.TriggerType) (*model.RefreshResult, bool) {
	if !s.running.CompareAndSwap(false, true) {
		log.Printf("[INFO] %s refresh skipped: previous refresh still running", trigger)
		return s.skipped(trigger), false
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.running.Store(false)
		log.Printf("[INFO] %s refresh skipped: scheduler stopped", trigger)
		return s.skipped(trigger), false
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()
	defer s.running.Store(false)

	res := s.Collector.Refresh(s.Ctx, trigger)
	if res.Err != nil {
		log.Printf("[ERROR] refresh %s (%s): %s: %v", res.ID, trigger, res.Status, res.Err)
	} else {
		log.Printf("[INFO] refresh %s (%s) done in %v", res.ID, trigger, res.Duration.Round(time.Millisecond))
	}

	if err := s.Recorder.RecordRefresh(res); err != nil {
		log.Printf("[ERROR] record refresh: %v", err)
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	if res.Status == model.RefreshOK {
		s.Broker.Publish(model.SnapshotUpdated{
			Seq:       s.seq.Add(1),
			RefreshID: res.ID,
			Symbol:    res.Symbol,
			Rows:      res.Rows,
			At:        res.StartedAt.Add(res.Duration),
			Snapshot:  res.Snapshot,
		})
	}
	return res, true
}

// skipped records a trigger that did not fetch. It is not kept as LastResult.
func (s *Scheduler) skipped(trigger model.TriggerType) *model.RefreshResult {
	res := &model.RefreshResult{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    model.RefreshSkipped,
		StartedAt: time.Now(),
	}
	if err := s.Recorder.RecordRefresh(res); err != nil {
		log.Printf("[ERROR] record refresh: %v", err)
	}
	return res
}
