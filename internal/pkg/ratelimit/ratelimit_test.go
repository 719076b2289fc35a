package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fursurecare/otpservice/internal/pkg/clock"
)

func TestLimiter_Allow(t *testing.T) {
	clk := clock.NewFrozen(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	l := New(Config{PerSecond: 1, Burst: 2}, clk)

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, time.Second, wait, float64(10*time.Millisecond))

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "buckets are per key")

	clk.Advance(time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestLimiter_Sweep(t *testing.T) {
	clk := clock.NewFrozen(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	l := New(Config{IdleTTL: time.Minute}, clk)

	l.Allow("a")
	clk.Advance(30 * time.Second)
	l.Allow("b")
	clk.Advance(45 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Len(t, l.entries, 1)
}

func TestLimiter_RunStops(t *testing.T) {
	l := New(Config{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, l.Run(ctx, time.Millisecond))
}
