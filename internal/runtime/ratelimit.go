package runtime

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces a caller's instruction submissions. There is no live
// cluster to protect here, but a harness driving many pool operations back
// to back still benefits from a throttle, the same way an off-chain client
// submitting real transactions would.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter allowing the given number of
// instruction submissions per second.
func NewRateLimiter(perSecond int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// Wait blocks until the limiter allows the next submission.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Allow reports whether a submission is allowed right now, without waiting.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// WaitWithTimeout waits for a token, giving up after timeout.
func (rl *RateLimiter) WaitWithTimeout(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return rl.Wait(ctx)
}
