package typewriter

import (
	"sort"
	"sync"
	"time"
)

// TimerScheduler schedules ticks on the wall clock.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// ManualClock is a Scheduler whose time only moves when told to. Callbacks
// fire on the goroutine calling Advance or RunNext, in due-time order.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	at  time.Duration
	seq uint64
	fn  func()
}

func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) Schedule(d time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d < 0 {
		d = 0
	}
	t := &manualTimer{at: c.now + d, seq: c.seq, fn: fn}
	c.seq++
	c.pending = append(c.pending, t)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.remove(t)
	}
}

// Now returns the elapsed manual time.
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Pending returns the number of scheduled callbacks.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Advance moves time forward by d, firing every callback that falls due,
// including ones scheduled by callbacks along the way. It returns the number
// of callbacks fired.
func (c *ManualClock) Advance(d time.Duration) int {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	fired := 0
	for {
		c.mu.Lock()
		t := c.next()
		if t == nil || t.at > target {
			c.now = target
			c.mu.Unlock()
			return fired
		}
		c.remove(t)
		c.now = t.at
		c.mu.Unlock()

		t.fn()
		fired++
	}
}

// RunNext jumps to the earliest pending callback and fires it. It reports
// false when nothing is pending.
func (c *ManualClock) RunNext() bool {
	c.mu.Lock()
	t := c.next()
	if t == nil {
		c.mu.Unlock()
		return false
	}
	c.remove(t)
	if t.at > c.now {
		c.now = t.at
	}
	c.mu.Unlock()

	t.fn()
	return true
}

func (c *ManualClock) next() *manualTimer {
	if len(c.pending) == 0 {
		return nil
	}
	sort.Slice(c.pending, func(i, j int) bool {
		if c.pending[i].at == c.pending[j].at {
			return c.pending[i].seq < c.pending[j].seq
		}
		return c.pending[i].at < c.pending[j].at
	})
	return c.pending[0]
}

func (c *ManualClock) remove(t *manualTimer) {
	for i, p := range c.pending {
		if p == t {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}
