package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/purelymail-mcp/internal/cache"
	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/config"
)

// maxResponseSize caps the API response body to prevent OOM from unexpectedly large responses.
const maxResponseSize = 50 << 20 // 50MB

// LiveClient sends tool calls to the REST API with a static credential header.
type LiveClient struct {
	baseURL     string
	tokenHeader string
	token       string
	httpClient  *http.Client
	limiter     *rate.Limiter
	cache       *cache.ResponseCache
	logger      *common.Logger
}

// NewLiveClient creates a client for cfg.BaseURL. A positive RateLimit enables
// client-side throttling and a positive CacheTTLSeconds caches GET responses.
func NewLiveClient(cfg config.APIConfig, logger *common.Logger) *LiveClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	c := &LiveClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		tokenHeader: cfg.TokenHeader,
		token:       cfg.Token,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if cfg.CacheTTLSeconds > 0 {
		maxEntries := cfg.CacheMaxEntries
		if maxEntries <= 0 {
			maxEntries = 256
		}
		c.cache = cache.New(time.Duration(cfg.CacheTTLSeconds)*time.Second, maxEntries)
	}

	return c
}

// BaseURL returns the configured API base URL.
func (c *LiveClient) BaseURL() string {
	return c.baseURL
}

// Invoke sends req.Body as JSON to the operation's path. Error statuses come
// back as a Response with Error set; only transport failures return an error.
func (c *LiveClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)

	body := req.Body
	if body == nil {
		body = map[string]any{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var key string
	if c.cache != nil && method == http.MethodGet {
		key = cache.MakeKey(method, req.Path, payload)
		if cached, ok := c.cache.Get(key); ok {
			c.logger.Debug().Str("method", method).Str("path", req.Path).Msg("api cache hit")
			return decodeResponse(cached.Status, cached.Body), nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	status, respBody, err := c.do(ctx, method, req.Path, payload)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		switch {
		case method == http.MethodGet && status < 400:
			c.cache.Set(key, &cache.CachedResponse{Status: status, Body: respBody})
		case method != http.MethodGet && status < 400:
			c.cache.InvalidatePath(req.Path)
		}
	}

	return decodeResponse(status, respBody), nil
}

func (c *LiveClient) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	c.logger.Debug().Str("method", method).Str("path", path).Msg("api request")

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" && c.tokenHeader != "" {
		httpReq.Header.Set(c.tokenHeader, c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error().Str("method", method).Str("path", path).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("api request failed")
		return 0, nil, fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("api response")

	return resp.StatusCode, body, nil
}

// decodeResponse splits a raw HTTP answer into data or error payloads.
// Bodies that are not JSON are kept as text.
func decodeResponse(status int, body []byte) *Response {
	var value any
	if len(bytes.TrimSpace(body)) > 0 {
		decoded, err := decodeJSON(body)
		if err != nil {
			decoded = string(body)
		}
		value = decoded
	}

	if status >= 400 {
		if value == nil {
			value = http.StatusText(status)
		}
		return &Response{Error: value, Status: status}
	}
	return &Response{Data: value, Status: status}
}

// decodeJSON decodes a single JSON value, keeping numbers as json.Number so
// they render exactly as received.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return value, nil
}
