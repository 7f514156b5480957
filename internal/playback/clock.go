// Package playback simulates audio playback for listening practice:
// progress advances at a fixed rate scaled by a speed multiplier, and
// completion fires once the declared content duration is reached.
package playback

import (
	"sync"
	"time"
)

// Clock abstracts time so tests can drive playback manually.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer matches the part of time.Timer playback needs.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

type systemTimer struct{ t *time.Timer }

func (st systemTimer) C() <-chan time.Time { return st.t.C }

func (st systemTimer) Stop() bool { return st.t.Stop() }

// ManualClock is a Clock advanced explicitly. Timers fire synchronously
// inside Advance once their deadline is reached.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

// NewManualClock returns a manual clock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{deadline: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward, firing every timer whose deadline
// falls inside the window.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	live := c.timers[:0]
	for _, t := range c.timers {
		if t.fire(c.now) {
			continue
		}
		live = append(live, t)
	}
	c.timers = live
}

type manualTimer struct {
	mu       sync.Mutex
	deadline time.Time
	ch       chan time.Time
	stopped  bool
}

func (t *manualTimer) C() <-chan time.Time { return t.ch }

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

// fire delivers the tick if due; reports whether the timer is spent.
func (t *manualTimer) fire(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return true
	}
	if now.Before(t.deadline) {
		return false
	}
	t.stopped = true
	select {
	case t.ch <- t.deadline:
	default:
	}
	return true
}
