// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/pkg/types"
)

func TestNewPacer(t *testing.T) {
	assert.IsType(t, NoPacing{}, NewPacer(types.PacingConfig{}))
	assert.IsType(t, FixedDelay(0), NewPacer(types.PacingConfig{Delay: time.Millisecond}))
	assert.IsType(t, &TokenBucket{}, NewPacer(types.PacingConfig{Rate: 5, Delay: time.Second}))
}

func TestFixedDelay_Waits(t *testing.T) {
	start := time.Now()
	require.NoError(t, FixedDelay(20*time.Millisecond).Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestFixedDelay_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := FixedDelay(time.Hour).Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenBucket_SpacesRequests(t *testing.T) {
	b := NewTokenBucket(50, 0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Wait(ctx))
	}
	// Burst of 1 at 50/s: the second and third tokens take ~20ms each.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
