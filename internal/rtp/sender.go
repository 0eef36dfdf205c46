package rtp

import (
	"io"
	"math/rand"
	"sync"

	"github.com/lanikai/aes67bridge/internal/packet"
)

// Sender maintains state necessary for sending RTP data packets with a single
// SSRC and payload type.
type Sender struct {
	w           io.Writer
	ssrc        uint32
	payloadType byte

	// Initial sequence number. The current sequence number is computed from
	// sequenceStart and count.
	sequenceStart uint16

	// Number of RTP packets sent.
	count uint64

	// Total number of payload bytes sent.
	totalBytes uint64

	// Buffer used for serializing packets.
	buf *packet.Writer

	sync.Mutex
}

// NewSender returns a Sender writing datagrams of at most maxPacketSize bytes
// to w. Each call to w.Write must transmit exactly one datagram.
func NewSender(w io.Writer, ssrc uint32, payloadType byte, maxPacketSize int) *Sender {
	return &Sender{
		w:             w,
		ssrc:          ssrc,
		payloadType:   payloadType & 0x7f,
		sequenceStart: uint16(rand.Uint32()),
		buf:           packet.NewWriterSize(maxPacketSize),
	}
}

// WritePacket sends a single RTP packet carrying payload.
func (s *Sender) WritePacket(marker bool, timestamp uint32, payload []byte) error {
	s.Lock()
	defer s.Unlock()

	p := s.buf
	p.Reset()

	hdr := Header{
		Marker:      marker,
		PayloadType: s.payloadType,
		Sequence:    s.sequenceNumber(),
		Timestamp:   timestamp,
		SSRC:        s.ssrc,
	}
	if err := hdr.writeTo(p); err != nil {
		return err
	}
	if err := p.WriteSlice(payload); err != nil {
		return err
	}

	if _, err := s.w.Write(p.Bytes()); err != nil {
		return err
	}
	s.count++
	s.totalBytes += uint64(len(payload))
	return nil
}

// Count returns the number of packets and payload bytes sent so far.
func (s *Sender) Count() (packets, bytes uint64) {
	s.Lock()
	defer s.Unlock()
	return s.count, s.totalBytes
}

// Compute the current sequence number. It wraps at 2^16.
func (s *Sender) sequenceNumber() uint16 {
	return uint16(s.count + uint64(s.sequenceStart))
}
