// Package client provides the core Merit Aktiva HTTP client with request
// signing, rate limiting, retries and error handling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/merittools/aktiva-client/pkg/auth"
	"github.com/merittools/aktiva-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Aktiva client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aktiva_requests_total",
		Help: "Total Aktiva requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aktiva_request_duration_seconds",
		Help:    "Aktiva request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aktiva_errors_total",
		Help: "Total Aktiva errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aktiva_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aktiva_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aktiva_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted",
	})
)

// DefaultBaseURL is the production Merit Aktiva API root.
const DefaultBaseURL = "https://aktiva.merit.ee/api/"

// Client is the Merit Aktiva HTTP client. All endpoint calls go through it;
// it signs every request, acquires one rate budget unit per attempt, retries
// transient failures and scrubs null bytes from response bodies.
type Client struct {
	httpClient *http.Client
	signer     *auth.Signer
	budget     ratelimit.Budget
	config     Config
	baseURL    string
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Merit API credentials (required).
	APIID  string
	APIKey string

	// BaseURL of the API. Defaults to DefaultBaseURL.
	BaseURL string

	// User-Agent header sent on every request.
	UserAgent string

	// Budget gates outgoing requests. When nil, an in-process budget with
	// the Merit default ceiling (60 requests / 60 s) is created, or a
	// redis-backed one when Redis is set so that several processes using
	// the same API key share the ceiling.
	Budget ratelimit.Budget

	// Redis client for the shared rate budget (optional).
	Redis *redis.Client

	// RateLimit / RateWindow configure the budget created when Budget is
	// nil. Zero values use the Merit defaults.
	RateLimit  int
	RateWindow time.Duration

	// Retry configures backoff for transient failures.
	Retry RetryConfig

	// Timeout applies per HTTP call (not to budget waits).
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration for the given credentials.
func DefaultConfig(apiID, apiKey string) Config {
	return Config{
		APIID:      apiID,
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		UserAgent:  "aktiva-client/1.0",
		RateLimit:  ratelimit.DefaultLimit,
		RateWindow: ratelimit.DefaultWindow,
		Retry:      DefaultRetryConfig(),
		Timeout:    30 * time.Second,
	}
}

// New creates a new Aktiva client.
func New(cfg Config) (*Client, error) {
	signer, err := auth.NewSigner(cfg.APIID, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = ratelimit.DefaultLimit
	}
	if cfg.RateWindow == 0 {
		cfg.RateWindow = ratelimit.DefaultWindow
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "aktiva-client").Logger()

	budget := cfg.Budget
	if budget == nil {
		if cfg.Redis != nil {
			budget, err = ratelimit.NewRedisBudget(cfg.Redis, cfg.APIID, cfg.RateLimit, cfg.RateWindow, logger)
			if err != nil {
				return nil, fmt.Errorf("create shared rate budget: %w", err)
			}
		} else {
			budget, err = ratelimit.NewWindowBudget(cfg.RateLimit, cfg.RateWindow, logger)
			if err != nil {
				return nil, fmt.Errorf("create rate budget: %w", err)
			}
		}
	}

	return &Client{
		httpClient: &http.Client{},
		signer:     signer,
		budget:     budget,
		config:     cfg,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/") + "/",
		logger:     logger,
	}, nil
}

// Call performs a signed POST to a versioned resource path (e.g.
// "v2/getinvoices") with the given request parameters and returns the
// scrubbed response body. All Merit endpoints take POST with a JSON body;
// the auth parameters travel in the query string.
func (c *Client) Call(ctx context.Context, path string, params map[string]any) ([]byte, error) {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal request params: %w", err)
	}

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("endpoint", path).
		Msg("Executing Aktiva request")

	var result []byte
	attempts := 0
	lastStatus := 0

	retryErr := retryWithBackoff(ctx, c.config.Retry, classifyError, func() error {
		attempts++

		// Every attempt is a real request against the API and must take a
		// budget unit. Budget waits are bounded by the parent context, not
		// the per-call timeout.
		if err := c.budget.Acquire(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}

		data, status, err := c.attempt(ctx, path, body)
		if status != 0 {
			lastStatus = status
		}
		if err != nil {
			return err
		}
		result = data
		return nil
	})

	if retryErr != nil {
		if errors.Is(retryErr, ErrRetryExhausted) {
			return nil, &FetchError{
				Endpoint:   path,
				Attempts:   attempts,
				LastStatus: lastStatus,
				Err:        retryErr,
			}
		}
		return nil, retryErr
	}

	return result, nil
}

// attempt issues one signed request. It returns the scrubbed body on
// success, and the HTTP status (0 for network errors) alongside any error.
func (c *Client) attempt(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	c.signer.Sign(req, body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// The caller gave up; distinct from an attempt timing out.
			return nil, 0, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}
		c.logger.Error().Err(err).Str("endpoint", path).Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(path, "network_error").Inc()
		return nil, 0, err
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(path, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		c.logger.Warn().
			Str("endpoint", path).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Aktiva request error")

		return nil, resp.StatusCode, &APIError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    errMessage(resp.Status, excerpt),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	return scrubNullBytes(data), resp.StatusCode, nil
}

// classifyStatus categorizes an HTTP error status.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyError maps a failed attempt to its error class for retry decisions.
func classifyError(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	if errors.Is(err, ErrContextCancelled) {
		// Not retryable; the caller gave up, not the server.
		return ""
	}
	return ErrorClassNetwork
}

// errMessage builds an API error message from the status line and a body excerpt.
func errMessage(status string, excerpt []byte) string {
	msg := strings.TrimSpace(string(excerpt))
	if msg == "" {
		return status
	}
	return status + ": " + msg
}

// Budget returns the rate budget the client gates requests with. Fetchers
// running against the same credentials must share it.
func (c *Client) Budget() ratelimit.Budget {
	return c.budget
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}
