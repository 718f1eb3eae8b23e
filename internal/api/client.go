// Package api fetches transfers by reference from the remote transfer API.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"transfer-status-backend/internal/models"
	"transfer-status-backend/internal/utils"
)

const component = "API"

// ErrPlaceholderReference is returned when asked to fetch a locally generated reference.
var ErrPlaceholderReference = errors.New("placeholder reference is not known to the backend")

// Config holds client configuration.
type Config struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RatePerSec   float64       `mapstructure:"rate_per_sec"`
	Burst        int           `mapstructure:"burst"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	APIKey       string        `mapstructure:"api_key"`
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:9000/api",
		Timeout:      10 * time.Second,
		RatePerSec:   20,
		Burst:        10,
		MaxRetries:   2,
		RetryBackoff: 250 * time.Millisecond,
	}
}

// Fetcher fetches the raw JSON of a transfer by reference.
type Fetcher interface {
	FetchTransfer(ctx context.Context, ref models.ReferenceID) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, ref models.ReferenceID) ([]byte, error)

func (f FetcherFunc) FetchTransfer(ctx context.Context, ref models.ReferenceID) ([]byte, error) {
	return f(ctx, ref)
}

// Client talks to the transfer API over a pooled HTTP client.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *utils.Logger
}

// New creates a client with connection pooling.
func New(cfg Config) *Client {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			MaxConnsPerHost:       50,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	return NewWithHTTPClient(cfg, httpClient)
}

// NewWithHTTPClient creates a client around an existing http.Client.
func NewWithHTTPClient(cfg Config, httpClient *http.Client) *Client {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     utils.APILogger,
	}
}

// FetchTransfer performs GET {base}/transfers/{ref} and returns the transfer
// object, unwrapped from a "data" or "transfer" envelope when present.
func (c *Client) FetchTransfer(ctx context.Context, ref models.ReferenceID) ([]byte, error) {
	if ref.Placeholder {
		return nil, ErrPlaceholderReference
	}
	if strings.TrimSpace(ref.Value) == "" {
		return nil, utils.NewAppError(utils.ErrorTypeValidation, "EMPTY_REF", "reference is required", component)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.fetchOnce(ctx, ref.Value)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil || !utils.IsRetryableError(err) {
			break
		}
		if attempt == c.cfg.MaxRetries {
			utils.LogAppError(err, c.logger, map[string]interface{}{"ref": ref.Value, "attempts": attempt + 1})
			break
		}
		c.logger.Debug("retrying %s after attempt %d: %v", ref.Value, attempt+1, err)
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, ref string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/transfers/%s", c.baseURL, url.PathEscape(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeInternal, "BAD_REQUEST", "error creating request", component)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, utils.WrapError(err, utils.ErrorTypeNetwork, "REQUEST_FAILED", "error making request", component).
			WithContext("ref", ref).AsRetryable()
	}
	defer resp.Body.Close()

	c.logger.Debug("GET %s completed in %v, status: %d", endpoint, time.Since(start), resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeNetwork, "READ_FAILED", "error reading response", component).
			WithContext("ref", ref).AsRetryable()
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, utils.NewAppError(utils.ErrorTypeNotFound, "TRANSFER_NOT_FOUND", "transfer not found", component).
			WithContext("ref", ref)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, utils.NewAppError(utils.ErrorTypeBackend, "UPSTREAM_UNAVAILABLE",
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode), component).
			WithContext("ref", ref).AsRetryable()
	case resp.StatusCode != http.StatusOK:
		return nil, utils.NewAppError(utils.ErrorTypeBackend, "UNEXPECTED_STATUS",
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode), component).
			WithDetails(errorDetail(body)).
			WithContext("ref", ref)
	}

	return unwrap(body)
}

// errorDetail pulls a message out of an error body, e.g. {"error":{"message":"..."}}.
func errorDetail(body []byte) string {
	for _, path := range []string{"error.message", "message", "error"} {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}

// unwrap returns the transfer object inside a {"data": ...} or {"transfer": ...}
// envelope, or the body itself when it is already the object.
func unwrap(body []byte) ([]byte, error) {
	if !gjson.ValidBytes(body) {
		return nil, utils.NewAppError(utils.ErrorTypeDecode, "INVALID_JSON", "error decoding response", component)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, utils.NewAppError(utils.ErrorTypeDecode, "NOT_AN_OBJECT", "response is not an object", component)
	}
	for _, path := range []string{"data.transfer", "data", "transfer"} {
		if inner := root.Get(path); inner.IsObject() {
			return []byte(inner.Raw), nil
		}
	}
	return body, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// GetConnectionStats returns HTTP client settings for monitoring.
func (c *Client) GetConnectionStats() map[string]interface{} {
	stats := map[string]interface{}{
		"baseUrl":    c.baseURL,
		"timeout":    c.httpClient.Timeout.String(),
		"rateLimit":  c.cfg.RatePerSec,
		"maxRetries": c.cfg.MaxRetries,
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		stats["transport"] = map[string]interface{}{
			"maxIdleConns":        transport.MaxIdleConns,
			"maxIdleConnsPerHost": transport.MaxIdleConnsPerHost,
			"maxConnsPerHost":     transport.MaxConnsPerHost,
			"idleConnTimeout":     transport.IdleConnTimeout.String(),
		}
	}
	return stats
}
