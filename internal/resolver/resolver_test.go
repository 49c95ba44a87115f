package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/powerdraw/internal/config"
	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/logger"
	"github.com/jonesrussell/powerdraw/internal/resolver"
)

type fakeFetcher struct {
	payloads map[string][]byte
	errs     map[string]error
	calls    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ map[string]string) ([]byte, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if payload, ok := f.payloads[url]; ok {
		return payload, nil
	}
	return nil, errors.New("unexpected url: " + url)
}

type fakeParser struct {
	draws map[string][]domain.Draw
}

func (f *fakeParser) Parse(_ []byte, sourceURL string) []domain.Draw {
	return f.draws[sourceURL]
}

func testSource() config.SourceConfig {
	return config.SourceConfig{
		BaseURL:           "https://lotto.test",
		PastResultsPath:   "/powerball/past-results",
		ArchivePathFormat: "/powerball/results-archive-%d",
		APIRecentPath:     "/api/v1/draws/recent",
		APIRangePaths:     []string{"/api/v1/draws?start=%d&end=%d"},
	}
}

func mkDraw(no int, date string) domain.Draw {
	d, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return domain.Draw{
		DrawNo:    no,
		DrawDate:  d,
		Mains:     []int{2, 9, 17, 23, 28, 31, 35},
		Powerball: 10,
		SourceURL: "src",
	}
}

func TestResolveYear_FeedSatisfiesRange(t *testing.T) {
	t.Parallel()

	const feedURL = "https://lotto.test/api/v1/draws/recent"

	fetch := &fakeFetcher{payloads: map[string][]byte{feedURL: []byte("{}")}}
	api := &fakeParser{draws: map[string][]domain.Draw{
		feedURL: {mkDraw(1464, "2024-07-04"), mkDraw(1463, "2024-06-27")},
	}}

	r := resolver.New(fetch, api, &fakeParser{}, testSource(), logger.NewNoOp())

	draws, err := r.ResolveYear(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, draws, 2)
	assert.Equal(t, []string{feedURL}, fetch.calls)
}

func TestResolveYear_FallsBackToRangeEndpoint(t *testing.T) {
	t.Parallel()

	const (
		feedURL  = "https://lotto.test/api/v1/draws/recent"
		rangeURL = "https://lotto.test/api/v1/draws?start=2024&end=2024"
	)

	fetch := &fakeFetcher{
		payloads: map[string][]byte{rangeURL: []byte("{}")},
		errs:     map[string]error{feedURL: errors.New("boom")},
	}
	api := &fakeParser{draws: map[string][]domain.Draw{
		rangeURL: {mkDraw(1464, "2024-07-04")},
	}}

	r := resolver.New(fetch, api, &fakeParser{}, testSource(), logger.NewNoOp())

	draws, err := r.ResolveYear(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, 1464, draws[0].DrawNo)
	assert.Equal(t, []string{feedURL, rangeURL}, fetch.calls)
}

func TestResolveYear_FallsBackToHTMLPage(t *testing.T) {
	t.Parallel()

	const (
		feedURL  = "https://lotto.test/api/v1/draws/recent"
		rangeURL = "https://lotto.test/api/v1/draws?start=2023&end=2023"
		htmlURL  = "https://lotto.test/powerball/results-archive-2023"
	)

	fetch := &fakeFetcher{
		payloads: map[string][]byte{htmlURL: []byte("<html></html>")},
		errs: map[string]error{
			feedURL:  errors.New("boom"),
			rangeURL: errors.New("boom"),
		},
	}
	html := &fakeParser{draws: map[string][]domain.Draw{
		htmlURL: {mkDraw(1401, "2023-01-05")},
	}}

	r := resolver.New(fetch, &fakeParser{}, html, testSource(), logger.NewNoOp())

	draws, err := r.ResolveYear(context.Background(), 2023)
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, 1401, draws[0].DrawNo)
	assert.Equal(t, []string{feedURL, rangeURL, htmlURL}, fetch.calls)
}

func TestResolveYear_AllSourcesFailYieldsEmptyNotError(t *testing.T) {
	t.Parallel()

	// No payloads configured, so every fetch fails.
	fetch := &fakeFetcher{}

	r := resolver.New(fetch, &fakeParser{}, &fakeParser{}, testSource(), logger.NewNoOp())

	draws, err := r.ResolveYear(context.Background(), 2024)
	require.NoError(t, err)
	assert.Empty(t, draws)
	assert.Len(t, fetch.calls, 3)
}

func TestResolveYear_FiltersDrawsOutsideScope(t *testing.T) {
	t.Parallel()

	const feedURL = "https://lotto.test/api/v1/draws/recent"

	fetch := &fakeFetcher{payloads: map[string][]byte{
		feedURL: []byte("{}"),
		"https://lotto.test/api/v1/draws?start=2024&end=2024": []byte("{}"),
		"https://lotto.test/powerball/results-archive-2024":   []byte("<html></html>"),
	}}
	api := &fakeParser{draws: map[string][]domain.Draw{
		feedURL: {mkDraw(1400, "2023-12-28"), mkDraw(1464, "2024-07-04")},
	}}

	r := resolver.New(fetch, api, &fakeParser{}, testSource(), logger.NewNoOp())

	draws, err := r.ResolveYear(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, 1464, draws[0].DrawNo)
}

func TestResolveRecent_KeepsTrailingWindowOnly(t *testing.T) {
	t.Parallel()

	const feedURL = "https://lotto.test/api/v1/draws/recent"

	now := time.Now().UTC()
	inside := now.AddDate(0, 0, -10).Format(domain.DateLayout)
	outside := now.AddDate(0, 0, -200).Format(domain.DateLayout)

	fetch := &fakeFetcher{payloads: map[string][]byte{feedURL: []byte("{}")}}
	api := &fakeParser{draws: map[string][]domain.Draw{
		feedURL: {mkDraw(1464, inside), mkDraw(1300, outside)},
	}}

	r := resolver.New(fetch, api, &fakeParser{}, testSource(), logger.NewNoOp())

	draws, err := r.ResolveRecent(context.Background(), 183)
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, 1464, draws[0].DrawNo)
}

func TestResolve_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := resolver.New(&fakeFetcher{}, &fakeParser{}, &fakeParser{}, testSource(), logger.NewNoOp())

	draws, err := r.ResolveYear(ctx, 2024)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, draws)
}
