//////////////////////////////////////////////////////////////////////////////
//
// Broadcast PCM chunks from one source queue to many client queues.
//
// Each client has its own DropQueue. The pump adds every chunk to every
// client queue; the chunk itself is shared, not copied, and must not be
// modified. A client that stops draining only loses its own oldest chunks.
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

const DefaultClientQueueCapacity = 64

type FanOut struct {
	source         *DropQueue[[]byte]
	clientCapacity int

	// Guards the client registry and the lifecycle fields below. Held for
	// the whole of each broadcast so registration never races iteration.
	mu      sync.Mutex
	clients map[uint64]*DropQueue[[]byte]
	nextID  uint64
	stopped bool
	cancel  context.CancelFunc

	// Closed when the pump exits.
	done     chan struct{}
	stopOnce sync.Once

	broadcasts atomic.Uint64
}

// ClientStats describes one registered client queue.
type ClientStats struct {
	ID       uint64
	Buffered int
	Dropped  uint64
}

type FanOutStats struct {
	Broadcasts uint64
	Clients    []ClientStats
}

// NewFanOut creates a fan-out reading from source. Client queues hold up to
// clientCapacity chunks each.
func NewFanOut(source *DropQueue[[]byte], clientCapacity int) *FanOut {
	if clientCapacity == 0 {
		clientCapacity = DefaultClientQueueCapacity
	}
	return &FanOut{
		source:         source,
		clientCapacity: clientCapacity,
		clients:        make(map[uint64]*DropQueue[[]byte]),
		done:           make(chan struct{}),
	}
}

// Start launches the pump goroutine. It has no effect if the fan-out was
// already started or stopped.
func (f *FanOut) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil || f.stopped {
		return
	}
	ctx, f.cancel = context.WithCancel(ctx)
	go f.pump(ctx)
}

// Stop cancels the pump, waits for it to exit, and closes every client queue.
// It is safe to call more than once and concurrently with AddClient and
// RemoveClient.
func (f *FanOut) Stop() {
	f.stopOnce.Do(func() {
		f.mu.Lock()
		f.stopped = true
		cancel := f.cancel
		f.mu.Unlock()

		if cancel != nil {
			cancel()
			<-f.done
		}
		f.closeClients()
	})
}

// Done is closed when the pump has exited.
func (f *FanOut) Done() <-chan struct{} {
	return f.done
}

func (f *FanOut) pump(ctx context.Context) {
	defer close(f.done)

	for {
		chunk, err := f.source.Pop(ctx)
		if err != nil {
			// ErrClosed: the receiver is gone. Otherwise: Stop.
			log.Debug("fan-out pump exiting: %v", err)
			f.closeClients()
			return
		}
		f.broadcast(chunk)
	}
}

func (f *FanOut) broadcast(chunk []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, q := range f.clients {
		// Never blocks; a backlogged client loses its oldest chunk.
		q.Push(chunk)
	}
	f.broadcasts.Add(1)
}

// AddClient registers a new client queue. Identifiers are never reused. If
// the fan-out has stopped, the returned queue is already closed.
func (f *FanOut) AddClient() (uint64, *DropQueue[[]byte]) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	q := NewDropQueue[[]byte](f.clientCapacity)
	if f.stopped {
		q.Close()
		return id, q
	}
	f.clients[id] = q
	return id, q
}

// RemoveClient unregisters and closes the client's queue. It reports whether
// the client was registered; removing an unknown client has no effect.
func (f *FanOut) RemoveClient(id uint64) bool {
	f.mu.Lock()
	q, ok := f.clients[id]
	delete(f.clients, id)
	f.mu.Unlock()

	if ok {
		q.Close()
		log.Debug("client %d removed, %d chunks dropped", id, q.Dropped())
	}
	return ok
}

// NumClients returns the number of registered clients.
func (f *FanOut) NumClients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *FanOut) Stats() FanOutStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := FanOutStats{Broadcasts: f.broadcasts.Load()}
	for id, q := range f.clients {
		stats.Clients = append(stats.Clients, ClientStats{
			ID:       id,
			Buffered: q.Len(),
			Dropped:  q.Dropped(),
		})
	}
	sort.Slice(stats.Clients, func(i, j int) bool {
		return stats.Clients[i].ID < stats.Clients[j].ID
	})
	return stats
}

// closeClients marks the fan-out stopped and closes every client queue, so
// that clients see end-of-stream.
func (f *FanOut) closeClients() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopped = true
	for id, q := range f.clients {
		q.Close()
		delete(f.clients, id)
	}
}
