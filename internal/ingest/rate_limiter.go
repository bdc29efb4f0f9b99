package ingest

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per source.
type RateLimiter struct {
	limiters map[string]*sourceLimiter
	mu       sync.Mutex
}

type sourceLimiter struct {
	limiter *rate.Limiter
	rpm     int
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{limiters: make(map[string]*sourceLimiter)}
}

// For returns the limiter for source, rebuilding it when the configured
// requests-per-minute changed. Non-positive rpm means unlimited. The bucket
// starts full, so a source may burst its whole minute up front.
func (rl *RateLimiter) For(source string, requestsPerMinute int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if sl, ok := rl.limiters[source]; ok && sl.rpm == requestsPerMinute {
		return sl.limiter
	}

	var l *rate.Limiter
	if requestsPerMinute <= 0 {
		l = rate.NewLimiter(rate.Inf, 1)
	} else {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}
	rl.limiters[source] = &sourceLimiter{limiter: l, rpm: requestsPerMinute}
	return l
}
