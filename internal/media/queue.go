package media

import (
	"context"
	"sync"
	"sync/atomic"
)

// DropQueue is a bounded FIFO that never blocks its producer. When a Push
// would exceed capacity, the oldest queued item is evicted first, trading
// completeness for latency.
//
// A DropQueue has one producer and one consumer. Push and Close may be called
// concurrently with each other; Pop may be called concurrently with both.
type DropQueue[T any] struct {
	ch chan T

	// Serializes Push against Close, so a send never hits a closed channel.
	mu     sync.Mutex
	closed bool

	pushed  atomic.Uint64
	dropped atomic.Uint64
}

// NewDropQueue creates a queue holding at most capacity items.
func NewDropQueue[T any](capacity int) *DropQueue[T] {
	if capacity < 1 {
		panic("media.DropQueue: capacity must be positive")
	}
	return &DropQueue[T]{ch: make(chan T, capacity)}
}

// Push appends v, first evicting the oldest item if the queue is full. It
// reports whether v was queued; false means the queue is closed, or (only
// under a concurrent producer) that it was still full after eviction.
func (q *DropQueue[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	select {
	case q.ch <- v:
		q.pushed.Add(1)
		return true
	default:
	}

	// Backlogged. Drop oldest, add newest.
	select {
	case <-q.ch:
		q.dropped.Add(1)
	default:
		// Consumer got there first.
	}

	select {
	case q.ch <- v:
		q.pushed.Add(1)
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Pop waits for the next item. Items queued before Close are still delivered;
// after that Pop returns ErrClosed. It returns ctx.Err() if ctx is done first.
func (q *DropQueue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-q.ch:
		if !ok {
			return zero, ErrClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TryPop returns the next item without waiting.
func (q *DropQueue[T]) TryPop() (v T, ok bool) {
	select {
	case v, ok = <-q.ch:
	default:
	}
	return
}

// C exposes the queue for use in a select statement. The channel is closed by
// Close.
func (q *DropQueue[T]) C() <-chan T {
	return q.ch
}

// Close stops accepting items. It is safe to call more than once.
func (q *DropQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

func (q *DropQueue[T]) Len() int {
	return len(q.ch)
}

func (q *DropQueue[T]) Cap() int {
	return cap(q.ch)
}

// Pushed returns the number of items accepted so far.
func (q *DropQueue[T]) Pushed() uint64 {
	return q.pushed.Load()
}

// Dropped returns the number of items lost to backpressure so far.
func (q *DropQueue[T]) Dropped() uint64 {
	return q.dropped.Load()
}
