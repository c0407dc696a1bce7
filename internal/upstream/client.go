// Package upstream provides the HTTP client for the Financial Datasets API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bobmcallan/findata-mcp/internal/cache"
	"github.com/bobmcallan/findata-mcp/internal/common"
)

// APIError is returned when the upstream API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream returned %d", e.StatusCode)
}

// Client calls the Financial Datasets REST API. The API key is injected as
// an X-API-KEY header on every request. GET responses are cached briefly so
// an AI analysis fanning out over facts/metrics/prices does not repeat
// round-trips the data tools just made.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	respCache  *cache.ResponseCache
}

// New creates a new upstream client from config.
func New(cfg common.UpstreamConfig, logger *common.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		logger:    logger,
		respCache: cache.New(cfg.GetCacheTTL(), 256),
	}
}

// Get performs a GET request against path with the given query parameters
// and returns the raw JSON response body. Bodies are passed through opaque;
// callers embed them directly into tool output or sampling requests.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	fullPath := path
	if len(query) > 0 {
		fullPath += "?" + query.Encode()
	}

	if body, ok := c.respCache.Get(fullPath); ok {
		c.logger.Debug().Str("path", fullPath).Msg("Upstream cache hit")
		return body, nil
	}

	c.logger.Debug().
		Str("method", "GET").
		Str("path", fullPath).
		Msg("Upstream request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+fullPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error().Err(err).Str("path", fullPath).Dur("duration", duration).Msg("Upstream request failed")
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("status", resp.Status).
		Int("status_code", resp.StatusCode).
		Dur("duration", duration).
		Msg("Upstream response")

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	c.respCache.Set(fullPath, body)
	return body, nil
}

// Post performs a POST request with a JSON body and returns the raw JSON
// response. Used by search-style endpoints; responses are not cached.
func (c *Client) Post(ctx context.Context, path string, data interface{}) (json.RawMessage, error) {
	c.logger.Debug().
		Str("method", "POST").
		Str("path", path).
		Msg("Upstream request")

	var bodyReader io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Dur("duration", duration).Msg("Upstream request failed")
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("status", resp.Status).
		Int("status_code", resp.StatusCode).
		Dur("duration", duration).
		Msg("Upstream response")

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	return body, nil
}

// decodeAPIError extracts the error message from an upstream error envelope.
// The API uses {"error": "..."} for most failures and {"detail": "..."} for
// validation errors.
func decodeAPIError(statusCode int, body []byte) error {
	var errResp struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Error != "" {
			return &APIError{StatusCode: statusCode, Message: errResp.Error}
		}
		if errResp.Detail != "" {
			return &APIError{StatusCode: statusCode, Message: errResp.Detail}
		}
	}
	return &APIError{StatusCode: statusCode, Message: fmt.Sprintf("upstream returned %d: %s", statusCode, body)}
}
