// Package ratelimit enforces the hourly ceiling on external check
// attempts and paces consecutive checks with randomized delays.
package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

const window = time.Hour

// Limiter tracks check attempts in a rolling one-hour window. Admit
// blocks until an attempt is permitted; it never rejects. The window is
// in-memory only: a process restart already implies an enforced pause,
// so cross-restart persistence is intentionally not attempted.
type Limiter struct {
	ceiling  int
	minDelay time.Duration
	maxDelay time.Duration

	stamps []time.Time
	rng    *rand.Rand

	// overridable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter with the given per-hour ceiling and the
// [minDelay, maxDelay] range for the randomized inter-check pause.
func New(ceiling int, minDelay, maxDelay time.Duration) *Limiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Limiter{
		ceiling:  ceiling,
		minDelay: minDelay,
		maxDelay: maxDelay,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Admit blocks until the next check attempt fits under the hourly
// ceiling, registers the attempt, then imposes the randomized
// inter-check delay. The only way it returns early is context
// cancellation.
func (l *Limiter) Admit(ctx context.Context) error {
	for {
		now := l.now()
		l.prune(now)
		if len(l.stamps) < l.ceiling {
			break
		}
		// Wait until the oldest attempt exits the rolling window.
		wait := l.stamps[0].Add(window).Sub(now)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}

	l.stamps = append(l.stamps, l.now())

	if l.maxDelay > 0 {
		return l.sleep(ctx, l.pause())
	}
	return nil
}

// Snapshot returns the attempts used in the current window and the ceiling.
func (l *Limiter) Snapshot() (used, ceiling int) {
	l.prune(l.now())
	return len(l.stamps), l.ceiling
}

// pause draws a uniform random delay from [minDelay, maxDelay] so
// consecutive checks never show a fixed-interval signature.
func (l *Limiter) pause() time.Duration {
	if l.maxDelay == l.minDelay {
		return l.minDelay
	}
	return l.minDelay + time.Duration(l.rng.Int63n(int64(l.maxDelay-l.minDelay)+1))
}

// prune drops timestamps older than the window so memory stays bounded
// over an arbitrarily long run.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
