package handler

import "sync"

// queue runs jobs one at a time, in push order, on its own goroutine.
// push never blocks, so it is safe to call from orchestrator listeners.
type queue struct {
	mu       sync.Mutex
	jobs     []func()
	stopped  bool
	draining bool
	wake     chan struct{}
	done     chan struct{}
	exited   chan struct{}
}

func newQueue() *queue {
	q := &queue{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *queue) push(job func()) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// stop discards jobs that have not started yet
func (q *queue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.stopped {
		q.stopped = true
		q.jobs = nil
		close(q.done)
	}
}

// drain stops accepting jobs but lets the pending ones run. The returned
// channel is closed when the queue goroutine has exited.
func (q *queue) drain() <-chan struct{} {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		q.draining = true
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return q.exited
}

func (q *queue) run() {
	defer close(q.exited)

	for {
		select {
		case <-q.done:
			return
		case <-q.wake:
		}

		for {
			q.mu.Lock()
			if len(q.jobs) == 0 {
				draining := q.draining
				q.mu.Unlock()
				if draining {
					return
				}
				break
			}
			job := q.jobs[0]
			q.jobs = q.jobs[1:]
			q.mu.Unlock()

			job()
		}
	}
}
