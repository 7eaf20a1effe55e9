// Package screener provides the client for the external filter-based
// stock-screening service.
package screener

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Row is one symbol row returned by a filter-query execution.
type Row struct {
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	ChangePct float64  `json:"change_pct"`
	Volume    int64    `json:"volume"`
	AvgVolume *float64 `json:"avg_volume,omitempty"`
	RelVolume *float64 `json:"rel_volume,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Sector    *string  `json:"sector,omitempty"`
}

// ServiceResponse is the standard response format of the screening service
type ServiceResponse struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *string         `json:"error"`
	Timestamp string          `json:"timestamp"`
}

// Client for the screening service
type Client struct {
	baseURL    string
	apiToken   string
	client     *http.Client
	maxRetries int
	log        zerolog.Logger
}

// NewClient creates a new screening service client
func NewClient(baseURL, apiToken string, timeout time.Duration, maxRetries int, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &Client{
		baseURL:    baseURL,
		apiToken:   apiToken,
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		log:        log.With().Str("client", "screener").Logger(),
	}
}

type runRequest struct {
	Name    string `json:"name"`
	Filters string `json:"filters"`
}

// ExecuteFilterQuery runs one named filter query against the screening
// service and returns its symbol rows. Retries transient failures with
// exponential backoff; the context bounds the whole call.
func (c *Client) ExecuteFilterQuery(ctx context.Context, name, query string) ([]Row, error) {
	body, err := json.Marshal(runRequest{Name: name, Filters: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			waitTime := time.Duration(1<<uint(attempt-1)) * time.Second
			c.log.Warn().
				Err(lastErr).
				Str("query", name).
				Int("attempt", attempt).
				Dur("wait", waitTime).
				Msg("Filter query failed, retrying")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitTime):
			}
		}

		rows, err := c.runQuery(ctx, body)
		if err == nil {
			c.log.Debug().Str("query", name).Int("rows", len(rows)).Msg("Filter query executed")
			return rows, nil
		}
		lastErr = err

		// Context errors are not retryable
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("filter query %q failed after %d attempts: %w", name, c.maxRetries, lastErr)
}

func (c *Client) runQuery(ctx context.Context, body []byte) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/screener/run", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("screener returned status %d: %s", resp.StatusCode, string(respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var sr ServiceResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !sr.Success {
		msg := "unknown error"
		if sr.Error != nil {
			msg = *sr.Error
		}
		return nil, fmt.Errorf("screener error: %s", msg)
	}

	var rows []Row
	if err := json.Unmarshal(sr.Data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse rows: %w", err)
	}

	return rows, nil
}
