// Package syncer orchestrates a full ingestion pass: year ranges plus the
// trailing recency window, de-duplicated across sources and upserted
// idempotently. Per-scope failures are collected, never fatal; only
// storage failure aborts a run.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/logger"
)

// DefaultTrailingDays is the recency window resolved after the year loop.
const DefaultTrailingDays = 183

// Storage is the slice of the storage contract the orchestrator consumes.
type Storage interface {
	Upsert(ctx context.Context, draw *domain.Draw) error
}

// RangeResolver resolves draws for a logical range. Satisfied by
// resolver.Resolver.
type RangeResolver interface {
	ResolveYear(ctx context.Context, year int) ([]domain.Draw, error)
	ResolveRecent(ctx context.Context, days int) ([]domain.Draw, error)
}

// Problem records a scope whose entire resolution chain failed.
type Problem struct {
	Scope string `json:"scope"`
	Err   error  `json:"-"`
}

// Error returns the problem's cause as a string for serialization.
func (p Problem) Error() string {
	if p.Err == nil {
		return ""
	}
	return p.Err.Error()
}

// Result summarizes one sync run.
type Result struct {
	Upserted int       `json:"upserted"`
	Problems []Problem `json:"problems,omitempty"`
}

// Config holds orchestration settings.
type Config struct {
	YearStart    int
	TrailingDays int
}

// Syncer drives the resolver across the year range plus the trailing
// window and upserts the surviving records.
type Syncer struct {
	resolver RangeResolver
	storage  Storage
	log      logger.Interface
	cfg      Config
	now      func() time.Time
}

// New creates a sync orchestrator.
func New(rangeResolver RangeResolver, storage Storage, cfg Config, log logger.Interface) *Syncer {
	if cfg.TrailingDays <= 0 {
		cfg.TrailingDays = DefaultTrailingDays
	}

	return &Syncer{
		resolver: rangeResolver,
		storage:  storage,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Sync runs one full ingestion pass from cfg.YearStart through the
// current year, then the trailing window. It returns a result with the
// upsert count and per-scope problems; it errors only on storage failure.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := s.log.With("run_id", runID)
	started := s.now()

	log.Info("sync started", "year_start", s.cfg.YearStart, "trailing_days", s.cfg.TrailingDays)

	result := &Result{}
	// One dedup set per invocation: a draw number seen in any earlier
	// batch of this run is discarded, first occurrence wins.
	seen := make(map[int]bool)

	currentYear := s.now().UTC().Year()
	for year := s.cfg.YearStart; year <= currentYear; year++ {
		scopeLabel := fmt.Sprintf("year %d", year)

		draws, err := s.resolver.ResolveYear(ctx, year)
		if err != nil {
			result.Problems = append(result.Problems, Problem{Scope: scopeLabel, Err: err})
			log.Error("scope resolution failed", "scope", scopeLabel, "error", err.Error())
			continue
		}

		if upsertErr := s.upsertBatch(ctx, draws, seen, result); upsertErr != nil {
			return nil, fmt.Errorf("upsert batch for %s: %w", scopeLabel, upsertErr)
		}
	}

	scopeLabel := fmt.Sprintf("trailing %d days", s.cfg.TrailingDays)

	draws, err := s.resolver.ResolveRecent(ctx, s.cfg.TrailingDays)
	if err != nil {
		result.Problems = append(result.Problems, Problem{Scope: scopeLabel, Err: err})
		log.Error("scope resolution failed", "scope", scopeLabel, "error", err.Error())
	} else if upsertErr := s.upsertBatch(ctx, draws, seen, result); upsertErr != nil {
		return nil, fmt.Errorf("upsert batch for %s: %w", scopeLabel, upsertErr)
	}

	log.Info("sync finished",
		"upserted", result.Upserted,
		"problems", len(result.Problems),
		"duration", s.now().Sub(started).String(),
	)

	return result, nil
}

// upsertBatch upserts every draw not already seen in this run. A storage
// error is catastrophic and aborts the run.
func (s *Syncer) upsertBatch(ctx context.Context, draws []domain.Draw, seen map[int]bool, result *Result) error {
	for i := range draws {
		draw := draws[i]

		if seen[draw.DrawNo] {
			continue
		}
		seen[draw.DrawNo] = true

		if err := s.storage.Upsert(ctx, &draw); err != nil {
			return fmt.Errorf("upsert draw %d: %w", draw.DrawNo, err)
		}
		result.Upserted++
	}

	return nil
}
