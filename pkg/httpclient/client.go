// Package httpclient wraps net/http with per-request timeouts and retry with
// exponential backoff for the upstream job feeds.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"job-ingest-go/internal/logger"
)

// ErrRetriesExhausted is returned when every attempt failed with a retryable
// error.
var ErrRetriesExhausted = errors.New("httpclient: retries exhausted")

const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 4
	DefaultBaseDelay   = 250 * time.Millisecond
	DefaultMaxDelay    = 4 * time.Second
	DefaultUserAgent   = "job-ingest-go/1.0"

	maxErrorBody = 512
)

// StatusError is returned for non-retryable, non-2xx responses.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d: %s", e.URL, e.Code, e.Body)
}

// RetryConfig controls the backoff schedule.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

type HttpClient struct {
	client    *http.Client
	retry     RetryConfig
	userAgent string
	log       logger.Logger
	jitter    func(time.Duration) time.Duration
}

type Option func(*HttpClient)

func WithRetry(cfg RetryConfig) Option {
	return func(h *HttpClient) {
		if cfg.MaxAttempts > 0 {
			h.retry.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.BaseDelay > 0 {
			h.retry.BaseDelay = cfg.BaseDelay
		}
		if cfg.MaxDelay > 0 {
			h.retry.MaxDelay = cfg.MaxDelay
		}
	}
}

func WithLogger(l logger.Logger) Option { return func(h *HttpClient) { h.log = l } }

func WithUserAgent(ua string) Option { return func(h *HttpClient) { h.userAgent = ua } }

// WithTransport swaps the round tripper, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(h *HttpClient) { h.client.Transport = rt }
}

func NewHttpClient(timeout time.Duration, opts ...Option) *HttpClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	h := &HttpClient{
		client:    &http.Client{Timeout: timeout},
		retry:     DefaultRetryConfig(),
		userAgent: DefaultUserAgent,
		log:       logger.NewNop(),
		jitter:    fullJitter,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Get issues a GET, retrying 429, 5xx and transport errors. Any other
// response is returned to the caller as-is.
func (h *HttpClient) Get(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error
	for attempt := range h.retry.MaxAttempts {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", h.userAgent)
		req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

		resp, err := h.client.Do(req)
		var retryAfter time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		case retryable(resp.StatusCode):
			retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			drain(resp)
		default:
			return resp, nil
		}

		if attempt == h.retry.MaxAttempts-1 {
			break
		}
		delay := h.backoff(attempt, retryAfter)
		h.log.Warn("retrying upstream request",
			logger.String("url", url),
			logger.Int("attempt", attempt+1),
			logger.Duration("delay", delay),
			logger.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("GET %s after %d attempts: %w: %v", url, h.retry.MaxAttempts, ErrRetriesExhausted, lastErr)
}

// GetJSON fetches url and decodes a 2xx body into v.
func (h *HttpClient) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := h.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: url, Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// backoff doubles from BaseDelay with full jitter, capped at MaxDelay. A
// server-provided Retry-After wins when it fits under the cap.
func (h *HttpClient) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return min(retryAfter, h.retry.MaxDelay)
	}
	d := h.retry.BaseDelay
	for i := 0; i < attempt && d < h.retry.MaxDelay; i++ {
		d *= 2
	}
	return h.jitter(min(d, h.retry.MaxDelay))
}

func fullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d) + 1))
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
