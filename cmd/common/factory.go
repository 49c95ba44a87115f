package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/powerdraw/internal/database"
	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/fetcher"
	"github.com/jonesrussell/powerdraw/internal/metrics"
	"github.com/jonesrussell/powerdraw/internal/parser"
	"github.com/jonesrussell/powerdraw/internal/resolver"
	"github.com/jonesrussell/powerdraw/internal/scheduler"
	"github.com/jonesrussell/powerdraw/internal/stats"
	"github.com/jonesrussell/powerdraw/internal/syncer"
)

// App wires the full pipeline: storage, fetch, parse, resolve, sync and
// stats, built from one loaded configuration.
type App struct {
	Deps     CommandDeps
	DB       *sqlx.DB
	Repo     *database.DrawRepository
	Engine   *stats.Engine
	Syncer   *syncer.Syncer
	Runner   *scheduler.Runner
	Resolver *resolver.Resolver
	Metrics  *metrics.SyncMetrics
}

// NewApp builds the application graph from the loaded configuration.
func NewApp(deps CommandDeps) (*App, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}

	cfg := deps.Config
	log := deps.Logger

	rules := domain.Rules{
		MainCount:    cfg.Game.MainCount,
		MainMax:      cfg.Game.MainMax,
		PowerballMax: cfg.Game.PowerballMax,
	}

	db, err := database.NewSQLiteConnection(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := database.NewDrawRepository(db, rules)

	fetchClient := fetcher.NewClient(fetcher.Config{
		Retries:      cfg.Fetch.Retries,
		BackoffBase:  cfg.Fetch.BackoffBase,
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		UserAgent:    cfg.Source.UserAgent,
	}, log.WithComponent("fetcher"))

	sourceResolver := resolver.New(
		fetchClient,
		parser.NewAPIParser(rules, log.WithComponent("api-parser")),
		parser.NewHTMLParser(rules, log.WithComponent("html-parser")),
		cfg.Source,
		log.WithComponent("resolver"),
	)

	drawSyncer := syncer.New(sourceResolver, repo, syncer.Config{
		YearStart:    cfg.Sync.YearStart,
		TrailingDays: cfg.Sync.TrailingDays,
	}, log.WithComponent("syncer"))

	syncMetrics := metrics.NewSyncMetrics()

	runner := scheduler.NewRunner(metrics.Instrument(drawSyncer.Sync, syncMetrics), scheduler.Config{
		Cron:        cfg.Sync.Cron,
		InitialSync: cfg.Sync.InitialSync,
	}, log.WithComponent("scheduler"))

	return &App{
		Deps:     deps,
		DB:       db,
		Repo:     repo,
		Engine:   stats.NewEngine(repo, rules, log.WithComponent("stats")),
		Syncer:   drawSyncer,
		Runner:   runner,
		Resolver: sourceResolver,
		Metrics:  syncMetrics,
	}, nil
}

// Close releases the application's resources.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
