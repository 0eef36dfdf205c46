package rtp

import (
	errors "golang.org/x/xerrors"

	"github.com/lanikai/aes67bridge/internal/packet"
)

// RTP Data Transfer Protocol, as defined in RFC 3550 Section 5.

// An RTP packet consists of a fixed 12-byte header, zero or more 32-bit CSRC
// identifiers, an optional header extension, followed by the payload itself.
// See https://tools.ietf.org/html/rfc3550#section-5.1
//    0                   1                   2                   3
//    0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//   |V=2|P|X|  CC   |M|     PT      |       sequence number         |
//   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//   |                           timestamp                           |
//   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//   |           synchronization source (SSRC) identifier            |
//   +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
//   |            contributing source (CSRC) identifiers             |
//   |                             ....                              |
//   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//   |      defined by profile       |           length              |
//   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//   |                        header extension                       |
//   |                             ....                              |
type Header struct {
	Version     byte
	Padding     bool // parsed, not applied to the payload
	Extension   bool
	CSRCCount   byte
	Marker      bool
	PayloadType byte
	Sequence    uint16
	Timestamp   uint32
	SSRC        uint32
}

const (
	// Fixed part of the header, up to and including the SSRC.
	HeaderSize = 12

	// Header extension prefix: 16-bit profile tag plus 16-bit length in words.
	extensionHeaderSize = 4
)

// Packet is a parsed RTP datagram. Payload aliases the datagram passed to
// Parse; it is only valid until that buffer is reused.
type Packet struct {
	Header

	// Total header length: fixed header, CSRC list, and header extension.
	HeaderLength int

	Payload []byte
}

// Parse reads the RTP header from datagram and returns the packet with its
// payload range. A datagram that is too short for its declared header, or
// that carries an RTP version other than 2, is rejected.
func Parse(datagram []byte) (Packet, error) {
	var p Packet
	r := packet.NewReader(datagram)
	if err := p.Header.readFrom(r); err != nil {
		return Packet{}, err
	}

	if p.Extension {
		if err := r.CheckRemaining(extensionHeaderSize); err != nil {
			return Packet{}, errors.Errorf("extension header: %v: %w", err, errTruncated)
		}
		r.Skip(2) // profile-defined tag
		words := int(r.ReadUint16())
		if err := r.CheckRemaining(4 * words); err != nil {
			return Packet{}, errors.Errorf("extension body: %v: %w", err, errTruncated)
		}
		r.Skip(4 * words)
	}

	p.HeaderLength = r.Offset()
	p.Payload = r.ReadRemaining()
	return p, nil
}

// Length of the header with its CSRC list, excluding any extension.
func (h *Header) length() int {
	return HeaderSize + 4*int(h.CSRCCount)
}

func (h *Header) readFrom(r *packet.Reader) error {
	if err := r.CheckRemaining(HeaderSize); err != nil {
		return errors.Errorf("fixed header: %v: %w", err, errTruncated)
	}

	h.Version, h.Padding, h.Extension, h.CSRCCount = splitByte2114(r.ReadByte())
	if h.Version != rtpVersion {
		return errBadVersion(h.Version)
	}
	h.Marker, h.PayloadType = splitByte17(r.ReadByte())
	h.Sequence = r.ReadUint16()
	h.Timestamp = r.ReadUint32()
	h.SSRC = r.ReadUint32()

	// The CSRC identifiers are not needed by anything downstream.
	if err := r.CheckRemaining(4 * int(h.CSRCCount)); err != nil {
		return errors.Errorf("csrc list: %v: %w", err, errTruncated)
	}
	r.Skip(4 * int(h.CSRCCount))

	return nil
}

// writeTo serializes the header without CSRC identifiers or extension. The
// CSRC count and extension bit are written as zero.
func (h *Header) writeTo(w *packet.Writer) error {
	if err := w.CheckCapacity(HeaderSize); err != nil {
		return err
	}
	w.WriteByte(joinByte2114(rtpVersion, h.Padding, false, 0))
	w.WriteByte(joinByte17(h.Marker, h.PayloadType))
	w.WriteUint16(h.Sequence)
	w.WriteUint32(h.Timestamp)
	w.WriteUint32(h.SSRC)
	return nil
}
