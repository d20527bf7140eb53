// Package archive implements the Fetcher: a polling HTTP client against the stable
// products/{product}/{cycle_date}/{cycle_hour}/{artifact_name} archive layout of spec §6.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/product"
)

// ErrNotYetPublished is returned (wrapped) when the archive responds 404 for a cycle that
// has not been published yet - a "skip gracefully," not a job failure.
var ErrNotYetPublished = errors.New("archive: artifact not yet published")

// Artifact is a raw fetched payload tagged with the coordinates that identify it.
type Artifact struct {
	Product      product.Name
	CycleTime    time.Time
	ForecastHour int
	Domain       string
	Data         []byte
}

// RetryPolicy bounds the Fetcher's exponential backoff on transient failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy mirrors a conservative archive-polling cadence: a handful of
// attempts, starting at one second and capping at thirty.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 30 * time.Second}

// Client fetches raw forecast artifacts from the archive's HTTP surface.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Retry   RetryPolicy
	Logger  *slog.Logger
}

// NewClient builds a Client with sane defaults; pass a configured *http.Client for
// custom timeouts/transport.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient, Retry: DefaultRetryPolicy, Logger: logger}
}

// path builds the stable archive path for a given artifact coordinate.
func (c *Client) path(name product.Name, cycleTime time.Time, artifactName string) string {
	cycleTime = cycleTime.UTC()
	return fmt.Sprintf("%s/products/%s/%s/%02d/%s",
		c.BaseURL, name, cycleTime.Format("2006-01-02"), cycleTime.Hour(), artifactName)
}

// Fetch retrieves one artifact, retrying transient failures with capped exponential
// backoff. A 404 is treated as "not yet published" and returned as ErrNotYetPublished
// without retrying further once the archive has definitively answered "no" - spec §4.1
// distinguishes "retry then report" (network/5xx) from "skip gracefully" (404).
func (c *Client) Fetch(ctx context.Context, name product.Name, cycleTime time.Time, forecastHour int, domain, artifactName string) (*Artifact, error) {
	url := c.path(name, cycleTime, artifactName)

	var lastErr error
	delay := c.Retry.BaseDelay
	for attempt := 1; attempt <= c.Retry.MaxAttempts; attempt++ {
		data, status, err := c.fetchOnce(ctx, url)
		if err == nil {
			c.Logger.Info("fetched artifact", "product", name, "cycle_time", cycleTime, "forecast_hour", forecastHour, "bytes", len(data))
			return &Artifact{Product: name, CycleTime: cycleTime.UTC(), ForecastHour: forecastHour, Domain: domain, Data: data}, nil
		}

		if status == http.StatusNotFound {
			c.Logger.Info("artifact not yet published", "product", name, "cycle_time", cycleTime, "url", url)
			return nil, fmt.Errorf("%w: %s", ErrNotYetPublished, url)
		}

		lastErr = err
		c.Logger.Warn("transient fetch failure, retrying", "product", name, "cycle_time", cycleTime, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("archive: fetch canceled: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.Retry.MaxDelay {
			delay = c.Retry.MaxDelay
		}
	}

	return nil, fmt.Errorf("archive: fetch failed after %d attempts: %w", c.Retry.MaxAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("archive: building request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("archive: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, resp.StatusCode, fmt.Errorf("archive: not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("archive: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("archive: reading body: %w", err)
	}
	return data, resp.StatusCode, nil
}
