package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/logger"
	"github.com/jonesrussell/powerdraw/internal/metrics"
	"github.com/jonesrussell/powerdraw/internal/scheduler"
	"github.com/jonesrussell/powerdraw/internal/stats"
	"github.com/jonesrussell/powerdraw/internal/syncer"
)

// Query parameter defaults.
const (
	defaultDrawsLimit  = 200
	defaultGroupsLimit = 10
)

// defaultGroupSizes are the combination sizes reported when the request
// does not name any.
var defaultGroupSizes = []int{2, 3, 4}

// DrawLister reads stored draws newest-first.
type DrawLister interface {
	List(ctx context.Context, limit int) ([]domain.Draw, error)
}

// StatsProvider computes descriptive statistics over stored draws.
type StatsProvider interface {
	Frequencies(ctx context.Context, window int) (*domain.FrequencyTable, error)
	GroupStats(ctx context.Context, window int, ks []int, limit int) (*stats.GroupResult, error)
	Predict(ctx context.Context, window int) (*stats.Prediction, error)
}

// SyncRunner triggers a sync pass behind the single-flight guard.
type SyncRunner interface {
	RunNow(ctx context.Context) (*syncer.Result, error)
}

// MetricsSource reports ingestion counters. Satisfied by
// metrics.SyncMetrics.
type MetricsSource interface {
	Snapshot() metrics.Snapshot
}

// RangeResolver exposes the resolver for the debug scrape endpoint.
type RangeResolver interface {
	ResolveYear(ctx context.Context, year int) ([]domain.Draw, error)
	ResolveRecent(ctx context.Context, days int) ([]domain.Draw, error)
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	draws        DrawLister
	stats        StatsProvider
	sync         SyncRunner
	resolver     RangeResolver
	metrics      MetricsSource
	trailingDays int
	log          logger.Interface
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(
	draws DrawLister,
	statsProvider StatsProvider,
	sync SyncRunner,
	rangeResolver RangeResolver,
	metricsSource MetricsSource,
	trailingDays int,
	log logger.Interface,
) *Handlers {
	return &Handlers{
		draws:        draws,
		stats:        statsProvider,
		sync:         sync,
		resolver:     rangeResolver,
		metrics:      metricsSource,
		trailingDays: trailingDays,
		log:          log,
	}
}

// GetDraws returns stored draws newest-first.
// GET /api/draws?limit=200
func (h *Handlers) GetDraws(c *gin.Context) {
	limit := intQuery(c, "limit", defaultDrawsLimit)

	draws, err := h.draws.List(c.Request.Context(), limit)
	if err != nil {
		h.serverError(c, "list draws failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"draws": draws, "count": len(draws)})
}

// GetFrequencies returns the frequency table over a window of draws.
// GET /api/frequencies?window=52
func (h *Handlers) GetFrequencies(c *gin.Context) {
	window := intQuery(c, "window", 0)

	table, err := h.stats.Frequencies(c.Request.Context(), window)
	if err != nil {
		h.serverError(c, "frequencies failed", err)
		return
	}

	c.JSON(http.StatusOK, table)
}

// GetGroups returns k-combination statistics over a window of draws.
// GET /api/groups?window=52&k=2,3&limit=10
func (h *Handlers) GetGroups(c *gin.Context) {
	window := intQuery(c, "window", 0)
	limit := intQuery(c, "limit", defaultGroupsLimit)

	ks, ok := groupSizesQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid k parameter"})
		return
	}

	result, err := h.stats.GroupStats(c.Request.Context(), window, ks, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPrediction returns the deterministic tie-broken pick.
// GET /api/prediction?window=52
func (h *Handlers) GetPrediction(c *gin.Context) {
	window := intQuery(c, "window", 0)

	prediction, err := h.stats.Predict(c.Request.Context(), window)
	if err != nil {
		h.serverError(c, "prediction failed", err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}

// GetStatus returns the ingestion counters.
// GET /api/status
func (h *Handlers) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// Refresh triggers a sync pass.
// POST /refresh
func (h *Handlers) Refresh(c *gin.Context) {
	result, err := h.sync.RunNow(c.Request.Context())
	if errors.Is(err, scheduler.ErrSyncInFlight) {
		c.JSON(http.StatusConflict, gin.H{"status": "busy", "error": err.Error()})
		return
	}
	if err != nil {
		h.serverError(c, "sync failed", err)
		return
	}

	problems := make([]gin.H, 0, len(result.Problems))
	for _, p := range result.Problems {
		problems = append(problems, gin.H{"scope": p.Scope, "error": p.Error()})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"upserted": result.Upserted,
		"problems": problems,
	})
}

// DebugScrape runs the resolver for one scope and returns a sample,
// bypassing storage.
// GET /debug/scrape?year=2024 or GET /debug/scrape
func (h *Handlers) DebugScrape(c *gin.Context) {
	const sampleSize = 3

	var draws []domain.Draw
	var err error
	mode := "latest"

	if yearParam := c.Query("year"); yearParam != "" {
		year, convErr := strconv.Atoi(yearParam)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid year"})
			return
		}
		mode = "year"
		draws, err = h.resolver.ResolveYear(c.Request.Context(), year)
	} else {
		draws, err = h.resolver.ResolveRecent(c.Request.Context(), h.trailingDays)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	sample := draws
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"mode":   mode,
		"count":  len(draws),
		"sample": sample,
	})
}

// serverError logs the error and responds with a 500.
func (h *Handlers) serverError(c *gin.Context, msg string, err error) {
	h.log.Error(msg, "error", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// intQuery reads an integer query parameter with a default.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// groupSizesQuery parses the comma-separated k parameter.
func groupSizesQuery(c *gin.Context) ([]int, bool) {
	raw := c.Query("k")
	if raw == "" {
		return defaultGroupSizes, true
	}

	parts := strings.Split(raw, ",")
	ks := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, false
		}
		ks = append(ks, n)
	}
	return ks, true
}
