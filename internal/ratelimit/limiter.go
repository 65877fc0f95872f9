// Package ratelimit paces outbound calls toward the market data provider.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter blocks until the next call is allowed to proceed.
type Limiter interface {
	Wait(ctx context.Context) error
}

// IntervalLimiter enforces a minimum gap between consecutive calls. The
// clock and sleep functions are injectable so tests run without wall-clock
// delays.
type IntervalLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewInterval creates a limiter with the given minimum gap.
func NewInterval(interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// NewIntervalWithClock creates a limiter with injected clock and sleep
// functions, for tests.
func NewIntervalWithClock(interval time.Duration, now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *IntervalLimiter {
	return &IntervalLimiter{interval: interval, now: now, sleep: sleep}
}

// Wait blocks until at least the configured interval has passed since the
// previous permitted call. The first call proceeds immediately.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()
	var wait time.Duration
	if !l.last.IsZero() {
		if elapsed := now.Sub(l.last); elapsed < l.interval {
			wait = l.interval - elapsed
		}
	}
	l.last = now.Add(wait)
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return l.sleep(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Nop is a limiter that never waits, for tests and offline replays.
type Nop struct{}

func (Nop) Wait(_ context.Context) error { return nil }
