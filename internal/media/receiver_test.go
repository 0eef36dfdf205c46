package media

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn delivers datagrams written to its channel, and fails reads once
// closed or once err is set.
type fakeConn struct {
	datagrams chan []byte
	err       error
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		datagrams: make(chan []byte, 16),
		closed:    make(chan struct{}),
	}
}

func (c *fakeConn) ReadFrom(b []byte) (int, net.Addr, error) {
	select {
	case d, ok := <-c.datagrams:
		if !ok {
			return 0, nil, c.err
		}
		return copy(b, d), &net.UDPAddr{IP: net.IPv4(192, 0, 2, 1), Port: 5004}, nil
	case <-c.closed:
		return 0, nil, net.ErrClosed
	}
}

func (c *fakeConn) WriteTo(b []byte, addr net.Addr) (int, error) { return len(b), nil }
func (c *fakeConn) LocalAddr() net.Addr                          { return &net.UDPAddr{Port: 5004} }
func (c *fakeConn) SetDeadline(t time.Time) error                { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error            { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error           { return nil }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// rtpDatagram builds a minimal RTP packet around payload.
func rtpDatagram(pt byte, seq uint16, payload []byte) []byte {
	hdr := []byte{0x80, pt & 0x7f, byte(seq >> 8), byte(seq), 0, 0, 0, 0, 0x12, 0x34, 0x56, 0x78}
	return append(hdr, payload...)
}

// l24Frame returns one stereo frame that converts to {0xff, tag, 0xff, tag}.
func l24Frame(tag byte) []byte {
	return []byte{tag, 0xff, 0x00, tag, 0xff, 0x00}
}

func TestReceiverDiscardsMalformedDatagram(t *testing.T) {
	r := NewReceiver(newFakeConn(), ReceiverOptions{PayloadType: 97, QueueCapacity: 4})

	assert.False(t, r.handleDatagram(make([]byte, 8)))
	assert.Zero(t, r.Queue().Len())

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.Received)
	assert.Equal(t, uint64(1), stats.Discarded)
	assert.Zero(t, stats.Queued)
}

func TestReceiverFiltersPayloadType(t *testing.T) {
	r := NewReceiver(newFakeConn(), ReceiverOptions{PayloadType: 97, QueueCapacity: 4})

	assert.False(t, r.handleDatagram(rtpDatagram(96, 1, l24Frame(1))))
	assert.True(t, r.handleDatagram(rtpDatagram(97, 2, l24Frame(2))))

	chunk, ok := r.Queue().TryPop()
	require.True(t, ok)
	assert.Equal(t, []byte{0xff, 0x02, 0xff, 0x02}, chunk)
	assert.Equal(t, uint64(1), r.Stats().Discarded)
}

func TestReceiverQueueDropsOldest(t *testing.T) {
	r := NewReceiver(newFakeConn(), ReceiverOptions{PayloadType: 97, QueueCapacity: 2})

	for i, tag := range []byte{'A', 'B', 'C'} {
		assert.True(t, r.handleDatagram(rtpDatagram(97, uint16(i), l24Frame(tag))))
	}

	var tags []byte
	for {
		chunk, ok := r.Queue().TryPop()
		if !ok {
			break
		}
		tags = append(tags, chunk[1])
	}
	assert.Equal(t, []byte{'B', 'C'}, tags)
	assert.Equal(t, uint64(1), r.Stats().Dropped)
}

func TestReceiverRunAndStop(t *testing.T) {
	conn := newFakeConn()
	r := NewReceiver(conn, ReceiverOptions{PayloadType: 97})
	assert.Equal(t, DefaultQueueCapacity, r.Queue().Cap())

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(context.Background()) }()

	conn.datagrams <- []byte{0x80, 97} // malformed, skipped
	for i := 0; i < 3; i++ {
		conn.datagrams <- rtpDatagram(97, uint16(i), l24Frame(byte(i)))
	}
	require.Eventually(t, func() bool { return r.Stats().Queued == 3 }, time.Second, time.Millisecond)
	assert.True(t, r.Running())

	r.Stop()
	r.Stop()
	require.NoError(t, <-errCh)
	assert.False(t, r.Running())

	// Queued chunks drain in order, then the queue reports closure.
	for i := 0; i < 3; i++ {
		chunk, err := r.Queue().Pop(context.Background())
		require.NoError(t, err)
		assert.Equal(t, byte(i), chunk[1])
	}
	_, err := r.Queue().Pop(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReceiverStopBeforeRun(t *testing.T) {
	r := NewReceiver(newFakeConn(), ReceiverOptions{PayloadType: 97})
	r.Stop()

	assert.NoError(t, r.Run(context.Background()))
	_, err := r.Queue().Pop(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReceiverRunCancelled(t *testing.T) {
	r := NewReceiver(newFakeConn(), ReceiverOptions{PayloadType: 97})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("receive loop did not exit on cancellation")
	}
}

func TestReceiverRunSocketError(t *testing.T) {
	conn := newFakeConn()
	conn.err = errors.New("network is down")
	close(conn.datagrams)

	r := NewReceiver(conn, ReceiverOptions{PayloadType: 97})
	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network is down")

	_, err = r.Queue().Pop(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
