// Package fetcher performs single-page HTTP fetches with bounded retry.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/powerdraw/internal/logger"
)

// Defaults applied when Config fields are zero.
const (
	DefaultRetries      = 3
	DefaultBackoffBase  = 3 * time.Second
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 10 * 1024 * 1024 // 10 MB
)

// FetchError is returned after all retry attempts are exhausted.
type FetchError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Config configures the fetch client.
type Config struct {
	Retries      int
	BackoffBase  time.Duration
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// Client fetches URLs with a per-request timeout and retries failed
// attempts with exponentially spaced backoff sleeps.
type Client struct {
	httpClient   *http.Client
	log          logger.Interface
	retries      int
	backoffBase  time.Duration
	maxBodyBytes int64
	userAgent    string
}

// NewClient creates a fetch client with the given configuration.
func NewClient(cfg Config, log logger.Interface) *Client {
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		log:          log,
		retries:      cfg.Retries,
		backoffBase:  cfg.BackoffBase,
		maxBodyBytes: cfg.MaxBodyBytes,
		userAgent:    cfg.UserAgent,
	}
}

// Fetch performs an HTTP GET against url with the given headers. It makes
// up to Retries attempts; any transport failure or non-2xx status counts
// as a failed attempt. The last attempt's error is surfaced as *FetchError.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			if sleepErr := c.sleepBackoff(ctx, attempt); sleepErr != nil {
				return nil, &FetchError{URL: url, Err: sleepErr}
			}
		}

		body, err := c.fetchOnce(ctx, url, headers)
		if err == nil {
			return body, nil
		}

		lastErr = err
		c.log.Warn("fetch attempt failed",
			"url", url,
			"attempt", attempt+1,
			"error", err.Error(),
		)
	}

	return nil, &FetchError{URL: url, Err: lastErr}
}

// sleepBackoff sleeps for the attempt-indexed backoff interval or returns
// early if the context is cancelled.
func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	delay := c.backoffBase * (1 << (attempt - 1))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// fetchOnce performs a single HTTP GET request.
func (c *Client) fetchOnce(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("http fetch: %w", doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes))
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, c.maxBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, fmt.Errorf("read response body: %w", readErr)
	}

	return body, nil
}
