package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/wonny/weekly-ranker/pkg/config"
	"github.com/wonny/weekly-ranker/pkg/logger"
	"github.com/wonny/weekly-ranker/pkg/redis"
)

// maxBodyBytes caps response bodies (a 5y daily chart is well under 1MB)
const maxBodyBytes = 16 << 20

// Client is an HTTP client wrapper with rate limiting, retry and logging
// ⭐ SSOT: 모든 외부 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient    *http.Client
	logger        *logger.Logger
	retryConfig   RetryConfig
	limiter       *rate.Limiter
	sharedLimiter *redis.RateLimiter
	userAgent     string
	observe       func(outcome string)
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Enabled         bool
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s) from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	ds := cfg.DataSource
	timeout := ds.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := ds.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithModule("httputil"),
		retryConfig: RetryConfig{
			MaxRetries:      ds.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
			Enabled:         ds.MaxRetries > 0,
		},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		userAgent: ds.UserAgent,
		observe:   func(string) {},
	}
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialInterval time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialInterval = initialInterval
	c.retryConfig.Enabled = maxRetries > 0
	return c
}

// DisableRetry disables automatic retry
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithRateLimit replaces the in-process limiter
func (c *Client) WithRateLimit(perSecond float64, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// WithSharedLimiter adds a Redis-backed limiter shared across processes
func (c *Client) WithSharedLimiter(limiter *redis.RateLimiter) *Client {
	c.sharedLimiter = limiter
	return c
}

// WithObserver registers a callback receiving "ok", "retry" or "error" per attempt outcome
func (c *Client) WithObserver(fn func(outcome string)) *Client {
	if fn != nil {
		c.observe = fn
	}
	return c
}

// GetBody performs a GET request and returns the body of a 2xx response
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	operation := func() error {
		if err := c.wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		b, err := c.once(ctx, url)
		if err != nil {
			if isRetryable(err) {
				c.observe("retry")
				return err
			}
			return backoff.Permanent(err)
		}
		body = b
		return nil
	}

	start := time.Now()
	err := backoff.RetryNotify(operation, c.policy(ctx), func(err error, delay time.Duration) {
		c.logger.WithFields(map[string]interface{}{
			"url":   url,
			"delay": delay.String(),
			"error": err.Error(),
		}).Warn("Retrying HTTP request")
	})
	if err != nil {
		c.observe("error")
		c.logger.WithFields(map[string]interface{}{
			"url":      url,
			"duration": time.Since(start).String(),
		}).WithError(err).Debug("HTTP request failed")
		return nil, err
	}

	c.observe("ok")
	c.logger.WithFields(map[string]interface{}{
		"url":      url,
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	}).Debug("HTTP request completed")
	return body, nil
}

// GetJSON performs a GET request and decodes a JSON body into dest
func (c *Client) GetJSON(ctx context.Context, url string, dest interface{}) error {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.sharedLimiter != nil {
		if err := c.sharedLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("shared rate limit wait failed: %w", err)
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}
	return nil
}

func (c *Client) once(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	if !c.retryConfig.Enabled {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryConfig.InitialInterval
	exp.MaxInterval = c.retryConfig.MaxInterval
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.retryConfig.MaxRetries)), ctx)
}

// IsRetryableStatus checks if a status code should be retried
func IsRetryableStatus(statusCode int) bool {
	// Retry on 5xx server errors and 429 Too Many Requests
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return IsRetryableStatus(statusErr.StatusCode)
	}
	// transport level failure
	return true
}
