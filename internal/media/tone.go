package media

import (
	"math"

	"github.com/pkg/errors"

	"github.com/lanikai/aes67bridge/internal/packet"
)

// Tone generates a stereo sine wave as L24 big-endian frames, the payload
// format of an AES67 stream. Both channels carry the same signal.
type Tone struct {
	step  float64 // phase increment per frame, radians
	phase float64
	amp   float64
}

// NewTone returns a generator for a sine of the given frequency in Hz at
// level dBFS (zero or negative).
func NewTone(freq, level float64) (*Tone, error) {
	if freq <= 0 || freq >= SampleRate/2 {
		return nil, errors.Errorf("tone frequency %g Hz out of range", freq)
	}
	if level > 0 {
		return nil, errors.Errorf("tone level %g dBFS above full scale", level)
	}
	return &Tone{
		step: 2 * math.Pi * freq / SampleRate,
		amp:  math.Pow(10, level/20) * (1<<23 - 1),
	}, nil
}

// FramesPerPacket returns the number of frames in a packet of the given
// duration, e.g. 48 for the AES67 default of 1ms.
func FramesPerPacket(ptimeMicros int) int {
	return SampleRate * ptimeMicros / 1e6
}

// Next fills a fresh L24 payload with the next n frames.
func (t *Tone) Next(n int) []byte {
	w := packet.NewWriterSize(n * L24FrameSize)
	for i := 0; i < n; i++ {
		s := uint32(int32(math.Round(t.amp * math.Sin(t.phase))))
		for c := 0; c < Channels; c++ {
			w.WriteUint24(s)
		}
		t.phase += t.step
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
	return w.Bytes()
}
