package mdp5

import (
	"log/slog"
	"sync"
)

// flipWork defers work on values until a frame boundary. Values are queued
// while the hardware may still read them; commit is called from the vblank
// path once the frame that referenced them is gone, and fn then runs on the
// worker.
type flipWork[T any] struct {
	name string
	fn   func(T)

	mu        sync.Mutex
	queued    []T
	committed []T
}

func newFlipWork[T any](name string, fn func(T)) *flipWork[T] {
	return &flipWork[T]{name: name, fn: fn}
}

func (w *flipWork[T]) queue(v T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queued = append(w.queued, v)
}

// commit hands every queued value to q.
func (w *flipWork[T]) commit(q *workqueue) {
	w.mu.Lock()
	if len(w.queued) == 0 {
		w.mu.Unlock()
		return
	}
	w.committed = append(w.committed, w.queued...)
	w.queued = nil
	w.mu.Unlock()
	q.queue(w.run)
}

func (w *flipWork[T]) run() {
	w.mu.Lock()
	items := w.committed
	w.committed = nil
	w.mu.Unlock()
	for _, v := range items {
		w.fn(v)
	}
}

// pending returns the number of values not yet processed.
func (w *flipWork[T]) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queued) + len(w.committed)
}

func (w *flipWork[T]) cleanup(log *slog.Logger) {
	if n := w.pending(); n != 0 {
		log.Warn("flip work not drained", "work", w.name, "pending", n)
	}
}
