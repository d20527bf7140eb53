// Package weather implements the thermal metric's air-temperature collaborator of spec
// §6: an HTTP service that, given (lat, lon, horizon_days), returns hourly air
// temperature. Retry/backoff shape is grounded on the archive Fetcher's own client.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/archive"
	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// HourlyReading is one hour of forecast weather at a point.
type HourlyReading struct {
	Time              time.Time
	AirTempC          float64
	ApparentTempC     float64
	PrecipitationMM   float64
	CloudCoverPercent float64
}

// Forecast is the hourly weather series the client returns for one point/horizon.
type Forecast struct {
	Point  domain.Point
	Hourly []HourlyReading
}

type apiResponse struct {
	Hourly struct {
		Time              []string  `json:"time"`
		Temperature2m     []float64 `json:"temperature_2m"`
		ApparentTemp      []float64 `json:"apparent_temperature"`
		Precipitation     []float64 `json:"precipitation"`
		CloudCoverPercent []float64 `json:"cloud_cover"`
	} `json:"hourly"`
}

// Client fetches hourly air temperature forecasts from a weather HTTP service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Retry   archive.RetryPolicy
	Logger  *slog.Logger
}

// NewClient builds a Client with sane defaults; pass a configured *http.Client for
// custom timeouts/transport.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient, Retry: archive.DefaultRetryPolicy, Logger: logger}
}

// Fetch retrieves an hourly air-temperature forecast for (lat, lon) out to horizonDays,
// retrying transient failures with capped exponential backoff.
func (c *Client) Fetch(ctx context.Context, point domain.Point, horizonDays int) (*Forecast, error) {
	url := fmt.Sprintf("%s/forecast?lat=%f&lon=%f&horizon_days=%d", c.BaseURL, point.Lat, point.Lon, horizonDays)

	var lastErr error
	delay := c.Retry.BaseDelay
	for attempt := 1; attempt <= c.Retry.MaxAttempts; attempt++ {
		forecast, err := c.fetchOnce(ctx, url, point)
		if err == nil {
			c.Logger.Info("fetched weather forecast", "lat", point.Lat, "lon", point.Lon, "hours", len(forecast.Hourly))
			return forecast, nil
		}

		lastErr = err
		c.Logger.Warn("transient weather fetch failure, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("weather: fetch canceled: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.Retry.MaxDelay {
			delay = c.Retry.MaxDelay
		}
	}

	return nil, fmt.Errorf("weather: fetch failed after %d attempts: %w", c.Retry.MaxAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string, point domain.Point) (*Forecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("weather: building request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("weather: reading body: %w", err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("weather: decoding response: %w", err)
	}

	return toForecast(point, decoded)
}

func toForecast(point domain.Point, resp apiResponse) (*Forecast, error) {
	n := len(resp.Hourly.Time)
	hourly := make([]HourlyReading, 0, n)
	for i := 0; i < n; i++ {
		t, err := time.Parse(time.RFC3339, resp.Hourly.Time[i])
		if err != nil {
			return nil, fmt.Errorf("weather: parsing hourly timestamp %q: %w", resp.Hourly.Time[i], err)
		}
		reading := HourlyReading{Time: t.UTC()}
		if i < len(resp.Hourly.Temperature2m) {
			reading.AirTempC = resp.Hourly.Temperature2m[i]
		}
		if i < len(resp.Hourly.ApparentTemp) {
			reading.ApparentTempC = resp.Hourly.ApparentTemp[i]
		}
		if i < len(resp.Hourly.Precipitation) {
			reading.PrecipitationMM = resp.Hourly.Precipitation[i]
		}
		if i < len(resp.Hourly.CloudCoverPercent) {
			reading.CloudCoverPercent = resp.Hourly.CloudCoverPercent[i]
		}
		hourly = append(hourly, reading)
	}
	return &Forecast{Point: point, Hourly: hourly}, nil
}

// AtOrBefore returns the last hourly reading with Time <= asOf, or ok=false if none.
func (f *Forecast) AtOrBefore(asOf time.Time) (HourlyReading, bool) {
	var best HourlyReading
	found := false
	for _, h := range f.Hourly {
		if h.Time.After(asOf) {
			continue
		}
		if !found || h.Time.After(best.Time) {
			best = h
			found = true
		}
	}
	return best, found
}
