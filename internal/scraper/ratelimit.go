package scraper

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRetryAfter is the backoff applied when a 429 carries no usable
// Retry-After header.
const DefaultRetryAfter = 30 * time.Second

// RateLimiter spaces out requests to one backend with a token bucket and
// honours Retry-After backoffs from 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter allows rps requests per second with the given burst.
// rps <= 0 disables the token bucket; backoffs still apply.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return r.limiter.Wait(ctx)
}

// Backoff holds every request until d has passed. A shorter backoff never
// cuts an existing one short.
func (r *RateLimiter) Backoff(d time.Duration) {
	if r == nil {
		return
	}
	if d <= 0 {
		d = DefaultRetryAfter
	}
	until := time.Now().Add(d)

	r.mu.Lock()
	defer r.mu.Unlock()
	if until.After(r.retryAt) {
		r.retryAt = until
	}
}

// RetryAt reports until when requests are held back.
func (r *RateLimiter) RetryAt() time.Time {
	if r == nil {
		return time.Time{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}
