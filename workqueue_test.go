package mdp5

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkqueueOrder(t *testing.T) {
	q := newWorkqueue()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.run(ctx) }()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 10; i++ {
		q.queue(func() {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
		})
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 10
	}, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestWorkqueueDrainsOnStop(t *testing.T) {
	q := newWorkqueue()
	ran := 0
	q.queue(func() { ran++ })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, q.run(ctx))
	assert.Equal(t, 1, ran)

	q.queue(func() { ran++ })
	q.drain()
	assert.Equal(t, 1, ran, "queued after close")
}

func TestFlipWork(t *testing.T) {
	var got []string
	w := newFlipWork("test", func(s string) { got = append(got, s) })
	q := newWorkqueue()

	w.commit(q)
	q.drain()
	assert.Empty(t, got)

	w.queue("a")
	w.queue("b")
	q.drain()
	assert.Empty(t, got, "not committed")
	assert.Equal(t, 2, w.pending())

	w.commit(q)
	w.queue("c")
	q.drain()
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, w.pending())

	w.commit(q)
	q.drain()
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, w.pending())
	w.cleanup(quietLogger())
}
