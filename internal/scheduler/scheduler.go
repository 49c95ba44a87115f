// Package scheduler runs recurring sync passes on a cron schedule and
// provides the single-flight guard that keeps at most one sync in flight
// at a time.
package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/powerdraw/internal/logger"
	"github.com/jonesrussell/powerdraw/internal/syncer"
)

// ErrSyncInFlight is returned when a sync run is already in progress.
var ErrSyncInFlight = errors.New("a sync is already in flight")

// SyncFunc runs one full sync pass. Satisfied by (*syncer.Syncer).Sync.
type SyncFunc func(ctx context.Context) (*syncer.Result, error)

// Config holds scheduling settings.
type Config struct {
	// Cron is the recurring schedule in crontab format.
	Cron string
	// InitialSync runs one pass asynchronously on Start.
	InitialSync bool
}

// Runner owns the cron schedule and the single-flight guard. The sync
// pipeline itself is not safe against overlapping runs; every entry
// point (cron tick, initial sync, manual refresh) goes through RunNow.
type Runner struct {
	syncFn SyncFunc
	cfg    Config
	log    logger.Interface
	cron   *cron.Cron
	mu     sync.Mutex
}

// NewRunner creates a sync runner.
func NewRunner(syncFn SyncFunc, cfg Config, log logger.Interface) *Runner {
	return &Runner{
		syncFn: syncFn,
		cfg:    cfg,
		log:    log,
		cron:   cron.New(),
	}
}

// RunNow runs one sync pass if none is in flight, returning
// ErrSyncInFlight otherwise.
func (r *Runner) RunNow(ctx context.Context) (*syncer.Result, error) {
	if !r.mu.TryLock() {
		return nil, ErrSyncInFlight
	}
	defer r.mu.Unlock()

	return r.syncFn(ctx)
}

// Start schedules the recurring sync and optionally kicks off an initial
// pass in the background. The context bounds every scheduled run.
func (r *Runner) Start(ctx context.Context) error {
	if _, err := r.cron.AddFunc(r.cfg.Cron, func() {
		r.runScheduled(ctx)
	}); err != nil {
		return err
	}

	if r.cfg.InitialSync {
		go r.runScheduled(ctx)
	}

	r.cron.Start()
	r.log.Info("sync scheduler started", "cron", r.cfg.Cron, "initial_sync", r.cfg.InitialSync)
	return nil
}

// Stop stops the cron schedule; running jobs finish on their own.
func (r *Runner) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.log.Info("sync scheduler stopped")
}

// runScheduled is the cron entry point; an overlapping tick is skipped.
func (r *Runner) runScheduled(ctx context.Context) {
	result, err := r.RunNow(ctx)
	if errors.Is(err, ErrSyncInFlight) {
		r.log.Warn("skipping scheduled sync, previous run still in flight")
		return
	}
	if err != nil {
		r.log.Error("scheduled sync failed", "error", err.Error())
		return
	}

	r.log.Info("scheduled sync complete",
		"upserted", result.Upserted,
		"problems", len(result.Problems),
	)
}
