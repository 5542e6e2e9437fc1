package testutil

import (
	"sort"
	"sync"
	"time"

	"gigsbot/internal/clock"
)

// FakeClock is a manually advanced clock.Clock. Callbacks run synchronously
// inside Advance, in due-time order, so tests observe their effects as soon
// as Advance returns.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	seq     int
	next    time.Duration
	period  time.Duration
	f       func()
	stopped bool
}

var _ clock.Clock = (*FakeClock)(nil)

// NewFakeClock creates a clock at time zero
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

func (c *FakeClock) Every(d time.Duration, f func()) clock.Stopper {
	return c.add(d, d, f)
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) clock.Stopper {
	return c.add(d, 0, f)
}

func (c *FakeClock) add(d, period time.Duration, f func()) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{clock: c, seq: c.seq, next: c.now + d, period: period, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}

// Advance moves time forward by d, firing every callback that falls due
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.nextDueLocked(target)
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = due.next
		if due.period > 0 {
			due.next += due.period
		} else {
			due.stopped = true
		}
		f := due.f
		c.mu.Unlock()

		f()
	}
}

func (c *FakeClock) nextDueLocked(target time.Duration) *fakeTimer {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	c.timers = live

	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].next != c.timers[j].next {
			return c.timers[i].next < c.timers[j].next
		}
		return c.timers[i].seq < c.timers[j].seq
	})

	if len(c.timers) == 0 || c.timers[0].next > target {
		return nil
	}
	return c.timers[0]
}

// Active returns the number of scheduled callbacks that have not been stopped
func (c *FakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
