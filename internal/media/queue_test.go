package media

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(q *DropQueue[[]byte]) []string {
	var out []string
	for {
		v, ok := q.TryPop()
		if !ok {
			return out
		}
		out = append(out, string(v))
	}
}

func TestDropQueueEvictsOldest(t *testing.T) {
	const n = 5
	q := NewDropQueue[int](n)
	for i := 0; i <= n; i++ {
		assert.True(t, q.Push(i))
	}
	assert.Equal(t, n, q.Len())
	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, uint64(n+1), q.Pushed())

	for want := 1; want <= n; want++ {
		got, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestDropQueueCapacityTwo(t *testing.T) {
	q := NewDropQueue[[]byte](2)
	q.Push([]byte("A"))
	q.Push([]byte("B"))
	q.Push([]byte("C"))
	assert.Equal(t, []string{"B", "C"}, drain(q))
}

func TestDropQueuePopWaits(t *testing.T) {
	q := NewDropQueue[[]byte](1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push([]byte("late"))
	}()

	v, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", string(v))
}

func TestDropQueuePopCancelled(t *testing.T) {
	q := NewDropQueue[[]byte](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDropQueueClose(t *testing.T) {
	q := NewDropQueue[[]byte](4)
	q.Push([]byte("A"))
	q.Close()
	q.Close()

	assert.False(t, q.Push([]byte("B")))

	// Items queued before Close are still delivered.
	v, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", string(v))

	_, err = q.Pop(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDropQueueConcurrentConsumer(t *testing.T) {
	const total = 10000
	q := NewDropQueue[int](8)

	done := make(chan []int)
	go func() {
		var got []int
		for {
			v, err := q.Pop(context.Background())
			if err != nil {
				done <- got
				return
			}
			got = append(got, v)
		}
	}()

	for i := 0; i < total; i++ {
		q.Push(i)
	}
	q.Close()

	got := <-done
	assert.Equal(t, uint64(total), uint64(len(got))+q.Dropped())
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i], "order must be preserved")
	}
}

func TestDropQueueRejectsZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { NewDropQueue[int](0) })
}
