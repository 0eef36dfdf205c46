//////////////////////////////////////////////////////////////////////////////
//
// Linear PCM sample format conversion. AES67 streams carry L24/48000/2:
// big-endian 24-bit samples, two channels interleaved. HTTP clients receive
// S16LE with the same rate and channel layout.
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

import (
	"encoding/binary"
)

const (
	SampleRate = 48000
	Channels   = 2

	// Bytes per interleaved stereo frame.
	L24FrameSize = 3 * Channels
	S16FrameSize = 2 * Channels
)

// ConvertL24BEToS16LE converts interleaved L24 big-endian stereo to S16
// little-endian stereo. The two most significant bytes of each sample are
// kept and the least significant byte is discarded, with no dithering. A
// trailing partial frame is dropped.
//
// The returned buffer is freshly allocated and never modified afterwards, so
// it may be shared between goroutines.
func ConvertL24BEToS16LE(payload []byte) []byte {
	frames := len(payload) / L24FrameSize
	out := make([]byte, frames*S16FrameSize)
	for i, o := 0, 0; o < len(out); i, o = i+L24FrameSize, o+S16FrameSize {
		binary.LittleEndian.PutUint16(out[o:], binary.BigEndian.Uint16(payload[i:]))
		binary.LittleEndian.PutUint16(out[o+2:], binary.BigEndian.Uint16(payload[i+3:]))
	}
	return out
}

