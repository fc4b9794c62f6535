package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter paces operations to a fixed interval with optional jitter.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	ticker   *time.Ticker
	jitter   float64 // 0.0 to 1.0
	interval time.Duration
	ch       <-chan time.Time
}

// NewLimiter creates a limiter allowing rps operations per second with the
// given jitter factor (clamped to [0,1]). If rps is <= 0, Wait never blocks.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	return Every(time.Duration(float64(time.Second)/rps), jitter)
}

// Every creates a limiter releasing one operation per interval.
func Every(interval time.Duration, jitter float64) *Limiter {
	if interval <= 0 {
		return &Limiter{}
	}
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	ticker := time.NewTicker(interval)
	return &Limiter{
		ticker:   ticker,
		jitter:   jitter,
		interval: interval,
		ch:       ticker.C,
	}
}

// Wait blocks until the next operation may run or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.ch == nil {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ch:
	}

	if l.jitter > 0 {
		// Negative jitter collapses to zero: the ticker already enforces the minimum gap.
		extra := time.Duration(float64(l.interval) * l.jitter * ((rand.Float64() * 2) - 1.0))
		if extra > 0 {
			return Sleep(ctx, extra)
		}
	}
	return nil
}

// Stop releases the underlying ticker.
func (l *Limiter) Stop() {
	if l != nil && l.ticker != nil {
		l.ticker.Stop()
	}
}

// Sleep pauses for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
