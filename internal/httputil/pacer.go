// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// Pacer is the politeness policy a batch loop applies between consecutive
// items. Batches call Wait before every item except the first.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer builds the policy described by cfg: a token bucket when Rate is
// set, a fixed delay when Delay is set, and no pacing otherwise.
func NewPacer(cfg types.PacingConfig) Pacer {
	switch {
	case cfg.Rate > 0:
		return NewTokenBucket(cfg.Rate, cfg.Burst)
	case cfg.Delay > 0:
		return FixedDelay(cfg.Delay)
	default:
		return NoPacing{}
	}
}

// NoPacing never waits.
type NoPacing struct{}

// Wait returns immediately.
func (NoPacing) Wait(context.Context) error { return nil }

// FixedDelay sleeps for a constant duration.
type FixedDelay time.Duration

// Wait sleeps for the delay or until ctx is done.
func (d FixedDelay) Wait(ctx context.Context) error {
	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TokenBucket paces requests with a token bucket.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket allows ratePerSecond sustained requests with the given
// burst (minimum 1).
func NewTokenBucket(ratePerSecond float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (b *TokenBucket) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}
