// Package resolver locates draw records for a logical range by trying
// upstream sources in priority order: the bulk JSON feed, the provider's
// range query endpoints, then the HTML results pages. Every step fails
// soft; an empty result after exhausting the chain is a valid outcome.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/powerdraw/internal/config"
	"github.com/jonesrussell/powerdraw/internal/domain"
	"github.com/jonesrussell/powerdraw/internal/logger"
)

// FetchClient fetches a single URL. Satisfied by fetcher.Client.
type FetchClient interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// APIParser decodes a JSON payload into draws. Satisfied by parser.APIParser.
type APIParser interface {
	Parse(payload []byte, sourceURL string) []domain.Draw
}

// HTMLParser extracts draws from an HTML page. Satisfied by parser.HTMLParser.
type HTMLParser interface {
	Parse(payload []byte, sourceURL string) []domain.Draw
}

// Resolver drives the per-range source fallback chain.
type Resolver struct {
	fetcher FetchClient
	api     APIParser
	html    HTMLParser
	source  config.SourceConfig
	log     logger.Interface
	now     func() time.Time
}

// New creates a resolver over the configured provider endpoints.
func New(
	fetchClient FetchClient,
	api APIParser,
	html HTMLParser,
	source config.SourceConfig,
	log logger.Interface,
) *Resolver {
	return &Resolver{
		fetcher: fetchClient,
		api:     api,
		html:    html,
		source:  source,
		log:     log,
		now:     time.Now,
	}
}

// scope is one logical resolution range.
type scope struct {
	label      string
	start, end time.Time
	startYear  int
	endYear    int
	htmlURL    string
}

// step is one link in the fallback chain; the first step yielding records
// wins.
type step struct {
	name string
	run  func(ctx context.Context) []domain.Draw
}

// ResolveYear returns the validated draws for one calendar year, or an
// empty slice when every source fails.
func (r *Resolver) ResolveYear(ctx context.Context, year int) ([]domain.Draw, error) {
	s := scope{
		label:     fmt.Sprintf("year %d", year),
		start:     time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		end:       time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		startYear: year,
		endYear:   year,
		htmlURL:   r.source.BaseURL + fmt.Sprintf(r.source.ArchivePathFormat, year),
	}
	return r.resolve(ctx, s)
}

// ResolveRecent returns the validated draws inside the trailing window of
// the given number of days.
func (r *Resolver) ResolveRecent(ctx context.Context, days int) ([]domain.Draw, error) {
	now := r.now().UTC()
	start := now.AddDate(0, 0, -days)

	s := scope{
		label:     fmt.Sprintf("trailing %d days", days),
		start:     time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		end:       time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		startYear: start.Year(),
		endYear:   now.Year(),
		htmlURL:   r.source.BaseURL + r.source.PastResultsPath,
	}
	return r.resolve(ctx, s)
}

// resolve walks the fallback chain for one scope.
func (r *Resolver) resolve(ctx context.Context, s scope) ([]domain.Draw, error) {
	steps := r.buildSteps(s)

	for _, st := range steps {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		draws := st.run(ctx)
		if len(draws) > 0 {
			r.log.Info("range resolved",
				"scope", s.label,
				"step", st.name,
				"count", len(draws),
			)
			return draws, nil
		}
	}

	r.log.Warn("no source produced records for range", "scope", s.label)
	return nil, nil
}

// buildSteps assembles the ordered chain for a scope: bulk feed, range
// endpoints, HTML page.
func (r *Resolver) buildSteps(s scope) []step {
	steps := []step{
		{
			name: "recent-feed",
			run: func(ctx context.Context) []domain.Draw {
				url := r.source.BaseURL + r.source.APIRecentPath
				return r.fetchAPI(ctx, url, s)
			},
		},
	}

	for _, pathFormat := range r.source.APIRangePaths {
		url := r.source.BaseURL + fmt.Sprintf(pathFormat, s.startYear, s.endYear)
		steps = append(steps, step{
			name: "range-query",
			run: func(ctx context.Context) []domain.Draw {
				return r.fetchAPI(ctx, url, s)
			},
		})
	}

	steps = append(steps, step{
		name: "html-page",
		run: func(ctx context.Context) []domain.Draw {
			return r.fetchHTML(ctx, s.htmlURL, s)
		},
	})

	return steps
}

// fetchAPI fetches one JSON endpoint and keeps the draws inside the scope.
func (r *Resolver) fetchAPI(ctx context.Context, url string, s scope) []domain.Draw {
	payload, err := r.fetcher.Fetch(ctx, url, r.headers())
	if err != nil {
		r.log.Warn("api step failed", "scope", s.label, "url", url, "error", err.Error())
		return nil
	}
	return filterRange(r.api.Parse(payload, url), s)
}

// fetchHTML fetches one results page and keeps the draws inside the scope.
func (r *Resolver) fetchHTML(ctx context.Context, url string, s scope) []domain.Draw {
	payload, err := r.fetcher.Fetch(ctx, url, r.headers())
	if err != nil {
		r.log.Warn("html step failed", "scope", s.label, "url", url, "error", err.Error())
		return nil
	}
	return filterRange(r.html.Parse(payload, url), s)
}

// headers returns the request headers sent to every upstream endpoint.
func (r *Resolver) headers() map[string]string {
	headers := map[string]string{}
	if r.source.AcceptLanguage != "" {
		headers["Accept-Language"] = r.source.AcceptLanguage
	}
	return headers
}

// filterRange keeps draws whose date falls inside the scope, inclusive.
func filterRange(draws []domain.Draw, s scope) []domain.Draw {
	if len(draws) == 0 {
		return nil
	}

	kept := make([]domain.Draw, 0, len(draws))
	for _, d := range draws {
		if d.DrawDate.Before(s.start) || d.DrawDate.After(s.end) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}
