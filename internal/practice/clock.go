package practice

import (
	"sync"
	"time"
)

// Timer is a running periodic callback. Stop is idempotent and safe to call
// from inside the callback.
type Timer interface {
	Stop()
}

// Clock schedules periodic callbacks.
type Clock interface {
	Every(d time.Duration, fn func()) Timer
}

// RealClock runs each Timer on its own goroutine backed by a time.Ticker.
type RealClock struct{}

func (RealClock) Every(d time.Duration, fn func()) Timer {
	t := &realTimer{stop: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				// Stop may race with a pending tick; re-check before firing.
				select {
				case <-t.stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

type realTimer struct {
	once sync.Once
	stop chan struct{}
}

func (t *realTimer) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// ManualClock fires timers only when Advance is called. Callbacks run on the
// caller's goroutine, in due order.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) Every(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, every: d, next: c.now + d, fn: fn, active: true}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d, firing every callback that falls due.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due *manualTimer
		for _, t := range c.timers {
			if t.active && t.next <= target && (due == nil || t.next < due.next) {
				due = t
			}
		}
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = due.next
		due.next += due.every
		fn := due.fn
		c.mu.Unlock()

		fn()
	}
}

// Active reports how many timers are still running.
func (c *ManualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if t.active {
			n++
		}
	}
	return n
}

type manualTimer struct {
	clock  *ManualClock
	every  time.Duration
	next   time.Duration
	fn     func()
	active bool
}

func (t *manualTimer) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.active = false
	kept := t.clock.timers[:0]
	for _, other := range t.clock.timers {
		if other.active {
			kept = append(kept, other)
		}
	}
	t.clock.timers = kept
}
