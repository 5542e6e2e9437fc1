package handler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueue_RunsJobsInOrder(t *testing.T) {
	q := newQueue()
	defer q.stop()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		q.push(func() {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
		})
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 50
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueue_PushAfterStopIsDropped(t *testing.T) {
	q := newQueue()
	q.stop()
	q.stop()

	ran := make(chan struct{}, 1)
	q.push(func() { ran <- struct{}{} })

	select {
	case <-ran:
		t.Fatal("job ran after stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestQueue_JobMayStopItsQueue(t *testing.T) {
	q := newQueue()

	done := make(chan struct{})
	q.push(func() {
		q.stop()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}

func TestQueue_DrainRunsPendingJobs(t *testing.T) {
	q := newQueue()

	block := make(chan struct{})
	q.push(func() { <-block })

	var mu sync.Mutex
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		q.push(func() {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
		})
	}

	done := q.drain()
	q.push(func() { t.Error("job pushed after drain ran") })
	close(block)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queue did not drain")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, got)
}
