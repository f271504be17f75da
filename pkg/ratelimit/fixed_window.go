package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FixedWindow is a fixed-window limiter. Windows are aligned to the moment
// the limiter was constructed; at most max admissions happen inside any one
// window. Slack of up to 2*max across a boundary is accepted.
type FixedWindow struct {
	mu          sync.Mutex
	max         int
	period      time.Duration
	windowStart time.Time
	count       int

	now    func() time.Time
	logger zerolog.Logger
}

// NewFixedWindow creates a limiter admitting maxPerSecond requests per second.
func NewFixedWindow(maxPerSecond int, logger zerolog.Logger) *FixedWindow {
	return NewFixedWindowPeriod(maxPerSecond, time.Second, logger)
}

// NewFixedWindowPeriod creates a limiter admitting max requests per period.
func NewFixedWindowPeriod(max int, period time.Duration, logger zerolog.Logger) *FixedWindow {
	if max < 1 {
		max = 1
	}
	l := &FixedWindow{
		max:    max,
		period: period,
		now:    time.Now,
		logger: logger,
	}
	l.windowStart = l.now()
	return l
}

// Admit blocks until the current window has room, then counts the caller in.
func (l *FixedWindow) Admit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	for {
		l.mu.Lock()
		now := l.now()
		l.advance(now)
		if l.count < l.max {
			l.count++
			l.mu.Unlock()
			observeAdmission(PolicyFixedWindow, time.Since(start))
			return nil
		}
		wait := l.windowStart.Add(l.period).Sub(now)
		l.mu.Unlock()

		l.logger.Debug().
			Int("max", l.max).
			Dur("wait", wait).
			Msg("Rate limit window full - waiting for next window")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// advance moves the window forward by whole periods once now has passed its
// end. Must be called with mu held.
func (l *FixedWindow) advance(now time.Time) {
	elapsed := now.Sub(l.windowStart)
	if elapsed < l.period {
		return
	}
	l.windowStart = l.windowStart.Add((elapsed / l.period) * l.period)
	l.count = 0
}
