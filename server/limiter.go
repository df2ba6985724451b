package server

import (
	"context"
	"time"

	"github.com/jathurchan/lockd/logger"
	"golang.org/x/time/rate"
)

// RateLimiter gates request admission.
type RateLimiter interface {
	Allow() bool
	Wait(ctx context.Context) error
}

// TokenBucketRateLimiter implements RateLimiter using a token bucket.
type TokenBucketRateLimiter struct {
	limiter *rate.Limiter
	log     logger.Logger
}

// NewTokenBucketRateLimiter creates a token bucket rate limiter allowing
// maxRequests over window, with the given burst capacity.
func NewTokenBucketRateLimiter(maxRequests, burst int, window time.Duration, log logger.Logger) *TokenBucketRateLimiter {
	var rps rate.Limit
	if window.Seconds() > 0 {
		rps = rate.Limit(float64(maxRequests) / window.Seconds())
	} else {
		rps = rate.Inf
		log.Warnw("rate limit window is zero or negative, disabling rate limiter", "window", window)
	}
	if burst <= 0 {
		burst = 1
		if rps != rate.Inf {
			log.Warnw("rate limit burst is zero or negative, setting to 1", "burst", burst)
		}
	}
	return &TokenBucketRateLimiter{
		limiter: rate.NewLimiter(rps, burst),
		log:     log,
	}
}

// Allow returns true if a request can proceed immediately.
func (rl *TokenBucketRateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Wait blocks until a request can proceed or ctx is cancelled.
func (rl *TokenBucketRateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// noOpRateLimiter always admits.
type noOpRateLimiter struct{}

func (noOpRateLimiter) Allow() bool                 { return true }
func (noOpRateLimiter) Wait(ctx context.Context) error { return nil }
