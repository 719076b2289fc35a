// Package ratelimit keeps one token bucket per key (client IP) on top of
// golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fursurecare/otpservice/internal/pkg/clock"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Config sizes the buckets.
type Config struct {
	// PerSecond is the sustained refill rate.
	PerSecond float64
	// Burst is the bucket size.
	Burst int
	// IdleTTL drops buckets not used for this long.
	IdleTTL time.Duration
}

// Limiter is a per-key token bucket limiter.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	clock   clock.Clocker
}

// New returns a limiter. Zero values fall back to 5 req/s, burst 10, idle 10m.
func New(cfg Config, clk clock.Clocker) *Limiter {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if clk == nil {
		clk = clock.New()
	}

	return &Limiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(cfg.PerSecond),
		burst:   cfg.Burst,
		idleTTL: cfg.IdleTTL,
		clock:   clk,
	}
}

// Allow takes one token for key. When denied it also returns how long until
// a token is available.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.clock.Now()

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Sweep drops idle buckets and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.entries, k)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			l.Sweep()
		}
	}
}
