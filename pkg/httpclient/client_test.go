package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient(opts ...Option) *HttpClient {
	opts = append([]Option{WithRetry(RetryConfig{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})}, opts...)
	return NewHttpClient(time.Second, opts...)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct{ OK bool }
	require.NoError(t, fastClient().GetJSON(context.Background(), srv.URL, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := fastClient().Get(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, int32(DefaultMaxAttempts), atomic.LoadInt32(&calls))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	err := fastClient().GetJSON(context.Background(), srv.URL, &struct{}{})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHttpClient(time.Second, WithRetry(RetryConfig{BaseDelay: time.Second, MaxDelay: time.Second}))
	c.jitter = func(d time.Duration) time.Duration { return d }
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Get(ctx, srv.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestBackoffSchedule(t *testing.T) {
	c := NewHttpClient(time.Second)
	c.jitter = func(d time.Duration) time.Duration { return d }

	assert.Equal(t, 250*time.Millisecond, c.backoff(0, 0))
	assert.Equal(t, 500*time.Millisecond, c.backoff(1, 0))
	assert.Equal(t, time.Second, c.backoff(2, 0))
	assert.Equal(t, 4*time.Second, c.backoff(5, 0))
	assert.Equal(t, 4*time.Second, c.backoff(70, 0))
	assert.Equal(t, 2*time.Second, c.backoff(0, 2*time.Second))
	assert.Equal(t, 4*time.Second, c.backoff(0, time.Minute))
}

func TestFullJitterStaysInRange(t *testing.T) {
	for range 100 {
		d := fullJitter(time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 3*time.Second, parseRetryAfter("3", now))
	assert.Equal(t, 10*time.Second, parseRetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter("", now))
	assert.Zero(t, parseRetryAfter("soon", now))
	assert.Zero(t, parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
}
