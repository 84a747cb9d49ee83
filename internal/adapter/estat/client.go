// Package estat fetches statistics documents from the e-Stat getStatsData
// REST API.
package estat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/opendata-etl/internal/config"
)

// Client implements pipeline.StatsFetcher against the e-Stat API.
type Client struct {
	appID        string
	statsDataID  string
	categoryCode string
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates an e-Stat client from the service configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		appID:        cfg.EstatAppID,
		statsDataID:  cfg.EstatStatsDataID,
		categoryCode: cfg.EstatCategoryCode,
		baseURL:      cfg.EstatBaseURL,
		httpClient:   &http.Client{Timeout: cfg.FetchTimeout},
		logger:       logger,
	}
}

// FetchStatsData retrieves one raw getStatsData document. Transport
// errors retry with exponential backoff; a non-200 status is permanent
// since the API reports bad parameters that way.
func (c *Client) FetchStatsData(ctx context.Context) ([]byte, error) {
	params := url.Values{
		"appId":             {c.appID},
		"statsDataId":       {c.statsDataID},
		"cdCat01":           {c.categoryCode},
		"metaGetFlg":        {"Y"},
		"cntGetFlg":         {"N"},
		"explanationGetFlg": {"Y"},
		"annotationGetFlg":  {"Y"},
		"sectionHeaderFlg":  {"1"},
		"replaceSpChars":    {"0"},
		"lang":              {"J"},
	}
	fullURL := c.baseURL + "?" + params.Encode()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetch stats data: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("e-stat API error: status %d: %s", resp.StatusCode, b))
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

	c.logger.Debug("stats document fetched", "stats_data_id", c.statsDataID, "bytes", len(body))
	return body, nil
}
