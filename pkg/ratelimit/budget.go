// Package ratelimit implements the shared request budget for the Merit
// Aktiva API. Merit allows 60 requests per rolling 60-second window per API
// key; the budget gates every outgoing request and suspends callers until
// capacity is available. The ceiling is global to the key, so one budget
// instance must be shared by all fetchers using the same credentials.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Default budget for the Merit Aktiva API.
const (
	DefaultLimit  = 60
	DefaultWindow = 60 * time.Second
)

// Budget gates outgoing requests against a rolling-window request ceiling.
type Budget interface {
	// Acquire blocks until one request unit is available or the context is
	// cancelled. After Acquire returns nil the caller may issue exactly one
	// request.
	Acquire(ctx context.Context) error
}

// WindowBudget is an in-process Budget tracking request issue times in a
// sliding log. It guarantees that no more than limit requests are admitted
// within any rolling window, across all goroutines sharing the instance.
type WindowBudget struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time

	now    func() time.Time
	wait   func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger
}

// NewWindowBudget creates a budget admitting limit requests per window.
func NewWindowBudget(limit int, window time.Duration, logger zerolog.Logger) (*WindowBudget, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive (got %d)", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive (got %v)", window)
	}
	return &WindowBudget{
		limit:  limit,
		window: window,
		stamps: make([]time.Time, 0, limit),
		now:    time.Now,
		wait:   sleepContext,
		logger: logger,
	}, nil
}

// NewDefaultBudget creates a budget with the Merit Aktiva default ceiling.
func NewDefaultBudget(logger zerolog.Logger) *WindowBudget {
	b, _ := NewWindowBudget(DefaultLimit, DefaultWindow, logger)
	return b
}

// SetClock overrides the time source and waiter (for testing).
func (b *WindowBudget) SetClock(now func() time.Time, wait func(ctx context.Context, d time.Duration) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
	b.wait = wait
}

// Acquire implements Budget.
func (b *WindowBudget) Acquire(ctx context.Context) error {
	waited := false
	start := time.Now()

	for {
		b.mu.Lock()
		now := b.now()
		b.prune(now)

		if len(b.stamps) < b.limit {
			b.stamps = append(b.stamps, now)
			budgetInWindow.Set(float64(len(b.stamps)))
			b.mu.Unlock()

			if waited {
				budgetWaitSeconds.Observe(time.Since(start).Seconds())
			}
			return nil
		}

		// Window full: wait until the oldest stamp leaves the window.
		delay := b.stamps[0].Add(b.window).Sub(now)
		b.mu.Unlock()

		if !waited {
			waited = true
			budgetWaitsTotal.Inc()
			b.logger.Debug().
				Dur("delay", delay).
				Int("limit", b.limit).
				Msg("Rate budget exhausted - suspending")
		}

		if err := b.wait(ctx, delay); err != nil {
			return fmt.Errorf("rate budget wait: %w", err)
		}
	}
}

// InWindow returns the number of requests issued within the current window.
func (b *WindowBudget) InWindow() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(b.now())
	return len(b.stamps)
}

// prune drops stamps that have left the window. Caller holds the lock.
func (b *WindowBudget) prune(now time.Time) {
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.stamps) && !b.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.stamps = append(b.stamps[:0], b.stamps[i:]...)
	}
}

// sleepContext waits for d with context cancellation support.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Yield through the context even for zero waits.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
