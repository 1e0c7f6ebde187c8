// Package limiter throttles generation calls with a token bucket.
package limiter

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/sweetpotato0/selfrag/middleware"
)

// RateLimiter middleware for rate limiting. Calls wait for a token; a call
// whose context ends while waiting fails with middleware.ErrRateLimitExceeded.
type RateLimiter struct {
	bucket *rate.Limiter
}

// NewRateLimiter allows perSecond calls per second with the given burst.
// A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{bucket: rate.NewLimiter(limit, burst)}
}

// Name returns the middleware name
func (m *RateLimiter) Name() string {
	return "RateLimiter"
}

// Execute waits for a token, then continues the chain
func (m *RateLimiter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if err := m.bucket.Wait(ctx.Context()); err != nil {
		return fmt.Errorf("%w: %v", middleware.ErrRateLimitExceeded, err)
	}
	return next(ctx)
}

// Allow reports whether a call could start now without waiting, consuming a
// token if so.
func (m *RateLimiter) Allow() bool {
	return m.bucket.Allow()
}
