package mdp5

import (
	"context"
	"sync"
)

// workqueue runs deferred work off the interrupt path, in queue order.
type workqueue struct {
	mu     sync.Mutex
	items  []func()
	wake   chan struct{}
	closed bool
}

func newWorkqueue() *workqueue {
	return &workqueue{wake: make(chan struct{}, 1)}
}

// queue schedules fn. It never blocks.
func (q *workqueue) queue(fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, fn)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// drain runs everything queued so far.
func (q *workqueue) drain() {
	for {
		q.mu.Lock()
		items := q.items
		q.items = nil
		q.mu.Unlock()
		if len(items) == 0 {
			return
		}
		for _, fn := range items {
			fn()
		}
	}
}

// run drains the queue until ctx is done, then runs what is left.
func (q *workqueue) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.closed = true
			q.mu.Unlock()
			q.drain()
			return nil
		case <-q.wake:
			q.drain()
		}
	}
}
