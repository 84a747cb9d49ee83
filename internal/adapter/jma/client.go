// Package jma fetches forecast documents from the JMA bosai forecast API.
package jma

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/opendata-etl/internal/config"
)

// Client implements pipeline.ForecastFetcher against the JMA API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a JMA client from the service configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.JMABaseURL,
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		logger:     logger,
	}
}

// FetchForecast retrieves the raw forecast document for one area code.
// Transport errors retry with exponential backoff; a non-200 status is
// permanent since it signals an unknown area code rather than a blip.
func (c *Client) FetchForecast(ctx context.Context, areaCode string) ([]byte, error) {
	fullURL := fmt.Sprintf("%s/%s.json", c.baseURL, areaCode)

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetch forecast: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("jma API error: area %s: status %d", areaCode, resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	c.logger.Debug("forecast fetched", "area_code", areaCode, "bytes", len(body))
	return body, nil
}
