package internal

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultMinRequestInterval is the minimum spacing between two requests.
	DefaultMinRequestInterval = time.Second
	ParseFloatBitSize         = 64
)

// RateLimiter spaces out requests. It keeps a next-allowed-time watermark in a
// single-token rate.Limiter and layers on top of it any delay the server asks
// for through Retry-After or the X-Ratelimit headers.
type RateLimiter struct {
	limiter *rate.Limiter

	mu             sync.Mutex
	forceWaitUntil time.Time
}

// NewRateLimiter returns a limiter allowing one request per interval.
// A non-positive interval disables spacing; server-forced delays still apply.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Acquire blocks until a request may be sent and consumes the slot.
// It returns how long the caller waited.
func (r *RateLimiter) Acquire(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.waitForForcedDelay(ctx); err != nil {
		return time.Since(start), err
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return time.Since(start), err
	}
	return time.Since(start), nil
}

func (r *RateLimiter) waitForForcedDelay(ctx context.Context) error {
	for {
		r.mu.Lock()
		waitUntil := r.forceWaitUntil
		r.mu.Unlock()

		if waitUntil.IsZero() {
			return nil
		}

		now := time.Now()
		if !now.Before(waitUntil) {
			r.clearForcedDelay(waitUntil)
			return nil
		}

		timer := time.NewTimer(waitUntil.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			r.clearForcedDelay(waitUntil)
		}
	}
}

func (r *RateLimiter) clearForcedDelay(previous time.Time) {
	r.mu.Lock()
	if previous.Equal(r.forceWaitUntil) {
		r.forceWaitUntil = time.Time{}
	}
	r.mu.Unlock()
}

// Observe applies the server's rate limit headers from resp.
func (r *RateLimiter) Observe(resp *http.Response) {
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.ParseFloat(retryAfter, ParseFloatBitSize); err == nil && seconds > 0 {
			r.Defer(time.Duration(seconds * float64(time.Second)))
		}
	}

	remainingHeader := resp.Header.Get("X-Ratelimit-Remaining")
	resetHeader := resp.Header.Get("X-Ratelimit-Reset")
	if remainingHeader == "" || resetHeader == "" {
		return
	}

	remaining, errRemaining := strconv.ParseFloat(remainingHeader, ParseFloatBitSize)
	resetSeconds, errReset := strconv.ParseFloat(resetHeader, ParseFloatBitSize)
	if errRemaining != nil || errReset != nil || resetSeconds <= 0 {
		return
	}

	if remaining <= 1 {
		r.Defer(time.Duration(resetSeconds * float64(time.Second)))
	}
}

// Defer holds back every request for at least d.
func (r *RateLimiter) Defer(d time.Duration) {
	if d <= 0 {
		return
	}

	until := time.Now().Add(d)

	r.mu.Lock()
	if until.After(r.forceWaitUntil) {
		r.forceWaitUntil = until
	}
	r.mu.Unlock()
}
