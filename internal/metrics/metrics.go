// Package metrics tracks ingestion counters exposed by the status
// endpoint.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/powerdraw/internal/scheduler"
	"github.com/jonesrussell/powerdraw/internal/syncer"
)

// SyncMetrics accumulates counters across sync runs. All methods are
// safe for concurrent use.
type SyncMetrics struct {
	mu sync.Mutex

	runsStarted   int64
	runsSucceeded int64
	runsFailed    int64
	drawsUpserted int64
	problems      int64

	startTime       time.Time
	lastRunStart    time.Time
	lastRunEnd      time.Time
	lastRunDuration time.Duration
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	RunsStarted     int64     `json:"runs_started"`
	RunsSucceeded   int64     `json:"runs_succeeded"`
	RunsFailed      int64     `json:"runs_failed"`
	DrawsUpserted   int64     `json:"draws_upserted"`
	Problems        int64     `json:"problems"`
	StartTime       time.Time `json:"start_time"`
	LastRunStart    time.Time `json:"last_run_start"`
	LastRunEnd      time.Time `json:"last_run_end"`
	LastRunDuration string    `json:"last_run_duration,omitempty"`
}

// NewSyncMetrics creates a metrics accumulator.
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{startTime: time.Now()}
}

// RunStarted records the start of a sync run.
func (m *SyncMetrics) RunStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runsStarted++
	m.lastRunStart = time.Now()
}

// RunFinished records the outcome of a sync run. A failed run carries no
// upsert or problem counts.
func (m *SyncMetrics) RunFinished(upserted, problems int, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastRunEnd = time.Now()
	m.lastRunDuration = m.lastRunEnd.Sub(m.lastRunStart)

	if failed {
		m.runsFailed++
		return
	}

	m.runsSucceeded++
	m.drawsUpserted += int64(upserted)
	m.problems += int64(problems)
}

// Snapshot returns a copy of the current counters.
func (m *SyncMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		RunsStarted:   m.runsStarted,
		RunsSucceeded: m.runsSucceeded,
		RunsFailed:    m.runsFailed,
		DrawsUpserted: m.drawsUpserted,
		Problems:      m.problems,
		StartTime:     m.startTime,
		LastRunStart:  m.lastRunStart,
		LastRunEnd:    m.lastRunEnd,
	}
	if m.lastRunDuration > 0 {
		snap.LastRunDuration = m.lastRunDuration.String()
	}
	return snap
}

// Reset clears all counters. The start time is reset to now.
func (m *SyncMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runsStarted = 0
	m.runsSucceeded = 0
	m.runsFailed = 0
	m.drawsUpserted = 0
	m.problems = 0
	m.startTime = time.Now()
	m.lastRunStart = time.Time{}
	m.lastRunEnd = time.Time{}
	m.lastRunDuration = 0
}

// Instrument wraps a sync function so every run, however triggered,
// updates the counters.
func Instrument(fn scheduler.SyncFunc, m *SyncMetrics) scheduler.SyncFunc {
	return func(ctx context.Context) (*syncer.Result, error) {
		m.RunStarted()

		result, err := fn(ctx)
		if err != nil {
			m.RunFinished(0, 0, true)
			return nil, err
		}

		m.RunFinished(result.Upserted, len(result.Problems), false)
		return result, nil
	}
}
