// Package clock abstracts the timers used by the payment orchestrator so
// tests can drive them without sleeping.
package clock

import (
	"sync"
	"time"
)

// Stopper cancels a scheduled callback. Stop is idempotent.
type Stopper interface {
	Stop()
}

// Clock schedules callbacks
type Clock interface {
	// Every calls f each d until stopped
	Every(d time.Duration, f func()) Stopper
	// AfterFunc calls f once after d unless stopped first
	AfterFunc(d time.Duration, f func()) Stopper
}

// Real returns a Clock backed by the time package
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Every(d time.Duration, f func()) Stopper {
	t := &ticker{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go t.run(f)
	return t
}

func (realClock) AfterFunc(d time.Duration, f func()) Stopper {
	return timer{time.AfterFunc(d, f)}
}

type timer struct {
	t *time.Timer
}

func (t timer) Stop() {
	t.t.Stop()
}

type ticker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *ticker) run(f func()) {
	defer t.ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			// Stop may race with a pending tick
			select {
			case <-t.done:
				return
			default:
			}
			f()
		}
	}
}

func (t *ticker) Stop() {
	t.once.Do(func() { close(t.done) })
}
