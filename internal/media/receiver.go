package media

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lanikai/aes67bridge/internal/rtp"
)

const (
	// Largest datagram we expect. AES67 packets are far smaller (1 ms of
	// L24/48000/2 is 288 bytes of payload).
	maxDatagramSize = 2048

	DefaultPayloadType   = 97
	DefaultQueueCapacity = 128
)

type ReceiverOptions struct {
	// RTP payload type of the stream, from its SDP description. Datagrams
	// with any other payload type are ignored.
	PayloadType uint8

	// Number of converted chunks buffered between the receive loop and its
	// consumer.
	QueueCapacity int
}

// Receiver reads RTP datagrams carrying L24 stereo audio, converts each
// payload to S16LE and queues the result. Malformed and foreign datagrams are
// discarded; when the consumer falls behind, the oldest chunk is dropped.
type Receiver struct {
	conn        net.PacketConn
	payloadType uint8
	queue       *DropQueue[[]byte]

	running   atomic.Bool
	stopped   atomic.Bool
	closeOnce sync.Once

	received  atomic.Uint64
	discarded atomic.Uint64
}

// ReceiverStats is a snapshot of receive-side counters.
type ReceiverStats struct {
	Received  uint64 // datagrams read from the socket
	Discarded uint64 // malformed or foreign datagrams
	Queued    uint64 // chunks accepted by the output queue
	Dropped   uint64 // chunks evicted from the output queue
}

// NewReceiver wraps an already-open packet connection. The Receiver takes
// ownership of conn and closes it on Stop.
func NewReceiver(conn net.PacketConn, opts ReceiverOptions) *Receiver {
	if opts.QueueCapacity == 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	return &Receiver{
		conn:        conn,
		payloadType: opts.PayloadType & 0x7f,
		queue:       NewDropQueue[[]byte](opts.QueueCapacity),
	}
}

// Queue returns the output queue. It is closed when Run returns.
func (r *Receiver) Queue() *DropQueue[[]byte] {
	return r.queue
}

// Run is the receive loop. It returns nil after Stop or cancellation of ctx,
// or the socket error that ended the loop. It does not restart itself.
func (r *Receiver) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	defer r.queue.Close()

	// Closing the socket is the only way to interrupt a blocked read.
	stop := context.AfterFunc(ctx, r.Stop)
	defer stop()

	log.Info("receiving RTP on %s, PT=%d", r.conn.LocalAddr(), r.payloadType)

	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := r.conn.ReadFrom(buf)
		if n > 0 {
			r.handleDatagram(buf[:n])
		}
		if err != nil {
			if r.stopped.Load() {
				return nil
			}
			return errors.Wrap(err, "receive")
		}
	}
}

// Stop ends the receive loop and closes the socket. It is safe to call more
// than once, and before Run.
func (r *Receiver) Stop() {
	r.stopped.Store(true)
	r.closeOnce.Do(func() {
		if err := r.conn.Close(); err != nil {
			log.Debug("closing receiver socket: %v", err)
		}
	})
}

// Running reports whether the receive loop is active.
func (r *Receiver) Running() bool {
	return r.running.Load()
}

func (r *Receiver) Stats() ReceiverStats {
	return ReceiverStats{
		Received:  r.received.Load(),
		Discarded: r.discarded.Load(),
		Queued:    r.queue.Pushed(),
		Dropped:   r.queue.Dropped(),
	}
}

// handleDatagram parses, filters, converts and queues one datagram. It
// reports whether a chunk was queued. The datagram buffer is not retained.
func (r *Receiver) handleDatagram(datagram []byte) bool {
	r.received.Add(1)

	p, err := rtp.Parse(datagram)
	if err != nil {
		r.discarded.Add(1)
		log.Trace(5, "discarding %d-byte datagram: %v", len(datagram), err)
		return false
	}
	if p.PayloadType != r.payloadType {
		r.discarded.Add(1)
		log.Trace(5, "discarding payload type %d", p.PayloadType)
		return false
	}

	return r.queue.Push(ConvertL24BEToS16LE(p.Payload))
}
