// Package goroutine runs background work off the request path: verification
// event publishing, broker consumers and periodic sweeps. Work is bounded by a
// fixed number of slots and drained on shutdown.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/fursurecare/otpservice/internal/pkg/stacktrace"
)

// DefaultSlotsPerCPU sizes the manager when NewManager receives a non-positive limit.
const DefaultSlotsPerCPU int = 100

// Manager runs named tasks in goroutines. Returned errors are collected and
// handed back by Wait.
type Manager struct {
	wg    sync.WaitGroup
	slots chan struct{}

	mu     sync.Mutex
	errs   []error
	closed bool
}

// NewManager returns a manager with limit concurrent slots.
func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultSlotsPerCPU
	}

	return &Manager{slots: make(chan struct{}, limit)}
}

// Go starts fn as task name. It reports false and drops the task when the
// manager is draining or every slot is busy.
func (g *Manager) Go(ctx context.Context, name string, fn func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		slog.WarnContext(ctx, "background task dropped", "task", name, "reason", "manager closed")
		return false
	}

	select {
	case g.slots <- struct{}{}:
	default:
		g.mu.Unlock()
		slog.WarnContext(ctx, "background task dropped", "task", name, "reason", "no free slot")
		return false
	}
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		defer func() { <-g.slots }()

		if err := g.run(ctx, name, fn); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, fmt.Errorf("%s: %w", name, err))
			g.mu.Unlock()
		}
	}()

	return true
}

func (g *Manager) run(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in background task", "task", name, "panic", rvr, "stack", stacktrace.Internal(1))
			err = fmt.Errorf("panic: %v", rvr)
		}
	}()

	if cerr := ctx.Err(); cerr != nil {
		slog.WarnContext(ctx, "background task canceled before start", "task", name, "because", cerr)
		return nil
	}

	return fn(ctx)
}

// Wait stops accepting tasks, blocks until running ones return and joins
// their errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
