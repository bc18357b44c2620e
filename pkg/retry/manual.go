package retry

import (
	"sync"
	"time"
)

// ManualClock is a Clock whose time only moves when one of its timers is
// started. Every Start advances the clock by the requested duration and fires
// at once, so Poll runs to completion without sleeping.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a ManualClock set to start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Timer returns a Timer bound to the clock.
func (c *ManualClock) Timer() Timer {
	return &manualTimer{clock: c, ch: make(chan time.Time, 1)}
}

// Options returns poll options driven by the clock.
func (c *ManualClock) Options(interval, timeout time.Duration) Options {
	return Options{Interval: interval, Timeout: timeout, Clock: c, Timer: c.Timer()}
}

type manualTimer struct {
	clock *ManualClock
	ch    chan time.Time
}

func (t *manualTimer) Start(d time.Duration) {
	t.clock.Advance(d)
	select {
	case t.ch <- t.clock.Now():
	default:
	}
}

func (t *manualTimer) Stop() {}

func (t *manualTimer) C() <-chan time.Time { return t.ch }
