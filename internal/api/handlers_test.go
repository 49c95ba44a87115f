package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/powerdraw/internal/api"
	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/logger"
	"github.com/jonesrussell/powerdraw/internal/metrics"
	"github.com/jonesrussell/powerdraw/internal/scheduler"
	"github.com/jonesrussell/powerdraw/internal/stats"
	"github.com/jonesrussell/powerdraw/internal/syncer"
)

type fakeLister struct {
	draws    []domain.Draw
	err      error
	gotLimit int
}

func (f *fakeLister) List(_ context.Context, limit int) ([]domain.Draw, error) {
	f.gotLimit = limit
	return f.draws, f.err
}

type fakeStats struct {
	table      *domain.FrequencyTable
	groups     *stats.GroupResult
	prediction *stats.Prediction
	err        error
	gotKs      []int
}

func (f *fakeStats) Frequencies(_ context.Context, _ int) (*domain.FrequencyTable, error) {
	return f.table, f.err
}

func (f *fakeStats) GroupStats(_ context.Context, _ int, ks []int, _ int) (*stats.GroupResult, error) {
	f.gotKs = ks
	return f.groups, f.err
}

func (f *fakeStats) Predict(_ context.Context, _ int) (*stats.Prediction, error) {
	return f.prediction, f.err
}

type fakeSync struct {
	result *syncer.Result
	err    error
}

func (f *fakeSync) RunNow(_ context.Context) (*syncer.Result, error) {
	return f.result, f.err
}

type fakeRangeResolver struct {
	draws   []domain.Draw
	err     error
	gotYear int
	gotDays int
}

func (f *fakeRangeResolver) ResolveYear(_ context.Context, year int) ([]domain.Draw, error) {
	f.gotYear = year
	return f.draws, f.err
}

func (f *fakeRangeResolver) ResolveRecent(_ context.Context, days int) ([]domain.Draw, error) {
	f.gotDays = days
	return f.draws, f.err
}

type testDeps struct {
	lister   *fakeLister
	stats    *fakeStats
	sync     *fakeSync
	resolver *fakeRangeResolver
}

func newTestRouter(deps testDeps) *gin.Engine {
	if deps.lister == nil {
		deps.lister = &fakeLister{}
	}
	if deps.stats == nil {
		deps.stats = &fakeStats{}
	}
	if deps.sync == nil {
		deps.sync = &fakeSync{result: &syncer.Result{}}
	}
	if deps.resolver == nil {
		deps.resolver = &fakeRangeResolver{}
	}

	h := api.NewHandlers(
		deps.lister, deps.stats, deps.sync, deps.resolver,
		metrics.NewSyncMetrics(), 183, logger.NewNoOp(),
	)
	return api.SetupRouter(h, logger.NewNoOp())
}

func doRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, http.NoBody)
	router.ServeHTTP(rec, req)
	return rec
}

func testDraw() domain.Draw {
	return domain.Draw{
		DrawNo:    1464,
		DrawDate:  time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC),
		Mains:     []int{2, 9, 17, 23, 28, 31, 35},
		Powerball: 10,
		SourceURL: "src",
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := doRequest(newTestRouter(testDeps{}), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())
}

func TestGetDraws(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{draws: []domain.Draw{testDraw()}}
	rec := doRequest(newTestRouter(testDeps{lister: lister}), http.MethodGet, "/api/draws?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, lister.gotLimit)

	var body struct {
		Count int           `json:"count"`
		Draws []domain.Draw `json:"draws"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Draws, 1)
	assert.Equal(t, 1464, body.Draws[0].DrawNo)
}

func TestGetDraws_DefaultLimit(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{}
	rec := doRequest(newTestRouter(testDeps{lister: lister}), http.MethodGet, "/api/draws")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200, lister.gotLimit)
}

func TestGetDraws_StorageError(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{err: errors.New("db closed")}
	rec := doRequest(newTestRouter(testDeps{lister: lister}), http.MethodGet, "/api/draws")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetFrequencies(t *testing.T) {
	t.Parallel()

	table := domain.NewFrequencyTable(domain.DefaultRules())
	rec := doRequest(
		newTestRouter(testDeps{stats: &fakeStats{table: table}}),
		http.MethodGet, "/api/frequencies?window=52",
	)
	require.Equal(t, http.StatusOK, rec.Code)

	var body domain.FrequencyTable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Mains, domain.MainMax)
}

func TestGetGroups_ParsesSizes(t *testing.T) {
	t.Parallel()

	st := &fakeStats{groups: &stats.GroupResult{Groups: map[int][]stats.GroupCount{}}}
	rec := doRequest(newTestRouter(testDeps{stats: st}), http.MethodGet, "/api/groups?k=2,3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{2, 3}, st.gotKs)
}

func TestGetGroups_DefaultSizes(t *testing.T) {
	t.Parallel()

	st := &fakeStats{groups: &stats.GroupResult{}}
	rec := doRequest(newTestRouter(testDeps{stats: st}), http.MethodGet, "/api/groups")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{2, 3, 4}, st.gotKs)
}

func TestGetGroups_BadSizeParameter(t *testing.T) {
	t.Parallel()

	rec := doRequest(newTestRouter(testDeps{}), http.MethodGet, "/api/groups?k=2,x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGroups_OutOfRangeSizeIsBadRequest(t *testing.T) {
	t.Parallel()

	st := &fakeStats{err: errors.New("group size 9 out of range [2,7]")}
	rec := doRequest(newTestRouter(testDeps{stats: st}), http.MethodGet, "/api/groups?k=9")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPrediction(t *testing.T) {
	t.Parallel()

	st := &fakeStats{prediction: &stats.Prediction{
		Mains:     stats.DomainPick{Chosen: 2, Count: 1},
		Powerball: stats.DomainPick{Chosen: 10, Count: 1},
		Note:      stats.Disclaimer,
	}}

	rec := doRequest(newTestRouter(testDeps{stats: st}), http.MethodGet, "/api/prediction")
	require.Equal(t, http.StatusOK, rec.Code)

	var body stats.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Mains.Chosen)
	assert.Equal(t, stats.Disclaimer, body.Note)
}

func TestGetStatus(t *testing.T) {
	t.Parallel()

	rec := doRequest(newTestRouter(testDeps{}), http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Zero(t, snap.RunsStarted)
	assert.False(t, snap.StartTime.IsZero())
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	sync := &fakeSync{result: &syncer.Result{
		Upserted: 12,
		Problems: []syncer.Problem{{Scope: "year 2020", Err: errors.New("provider down")}},
	}}

	rec := doRequest(newTestRouter(testDeps{sync: sync}), http.MethodPost, "/refresh")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string `json:"status"`
		Upserted int    `json:"upserted"`
		Problems []struct {
			Scope string `json:"scope"`
			Error string `json:"error"`
		} `json:"problems"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 12, body.Upserted)
	require.Len(t, body.Problems, 1)
	assert.Equal(t, "year 2020", body.Problems[0].Scope)
}

func TestRefresh_BusyWhileSyncInFlight(t *testing.T) {
	t.Parallel()

	sync := &fakeSync{err: scheduler.ErrSyncInFlight}
	rec := doRequest(newTestRouter(testDeps{sync: sync}), http.MethodPost, "/refresh")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "busy")
}

func TestRefresh_SyncFailure(t *testing.T) {
	t.Parallel()

	sync := &fakeSync{err: errors.New("storage gone")}
	rec := doRequest(newTestRouter(testDeps{sync: sync}), http.MethodPost, "/refresh")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDebugScrape_YearMode(t *testing.T) {
	t.Parallel()

	res := &fakeRangeResolver{draws: []domain.Draw{testDraw(), testDraw(), testDraw(), testDraw()}}
	rec := doRequest(newTestRouter(testDeps{resolver: res}), http.MethodGet, "/debug/scrape?year=2024")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, res.gotYear)

	var body struct {
		OK     bool          `json:"ok"`
		Mode   string        `json:"mode"`
		Count  int           `json:"count"`
		Sample []domain.Draw `json:"sample"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, "year", body.Mode)
	assert.Equal(t, 4, body.Count)
	assert.Len(t, body.Sample, 3)
}

func TestDebugScrape_LatestMode(t *testing.T) {
	t.Parallel()

	res := &fakeRangeResolver{draws: []domain.Draw{testDraw()}}
	rec := doRequest(newTestRouter(testDeps{resolver: res}), http.MethodGet, "/debug/scrape")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 183, res.gotDays)
	assert.Contains(t, rec.Body.String(), `"mode":"latest"`)
}

func TestDebugScrape_InvalidYear(t *testing.T) {
	t.Parallel()

	rec := doRequest(newTestRouter(testDeps{}), http.MethodGet, "/debug/scrape?year=banana")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
