package packet

import (
	"fmt"
)

// Writer serializes big-endian fields into a fixed-size buffer.
type Writer struct {
	buffer []byte
	offset int
}

func NewWriter(buffer []byte) *Writer {
	return &Writer{buffer, 0}
}

func NewWriterSize(n int) *Writer {
	return NewWriter(make([]byte, n))
}

func (w *Writer) WriteByte(v byte) {
	w.buffer[w.offset] = v
	w.offset++
}

func (w *Writer) WriteUint16(v uint16) {
	networkOrder.PutUint16(w.buffer[w.offset:], v)
	w.offset += 2
}

// WriteUint24 writes the low 24 bits of v, most significant byte first. This
// is the L24 sample layout.
func (w *Writer) WriteUint24(v uint32) {
	w.buffer[w.offset] = byte(v >> 16)
	w.buffer[w.offset+1] = byte(v >> 8)
	w.buffer[w.offset+2] = byte(v)
	w.offset += 3
}

func (w *Writer) WriteUint32(v uint32) {
	networkOrder.PutUint32(w.buffer[w.offset:], v)
	w.offset += 4
}

// Write the given bytes, if there is enough room.
func (w *Writer) WriteSlice(p []byte) error {
	if err := w.CheckCapacity(len(p)); err != nil {
		return err
	}
	w.offset += copy(w.buffer[w.offset:], p)
	return nil
}

// Return the number of bytes written so far.
func (w *Writer) Length() int {
	return w.offset
}

// Return the number of bytes that can still be written.
func (w *Writer) Available() int {
	return len(w.buffer) - w.offset
}

func (w *Writer) CheckCapacity(needed int) error {
	if w.Available() < needed {
		return fmt.Errorf("%d bytes available, %d needed", w.Available(), needed)
	}
	return nil
}

// Return a slice of the bytes written so far.
func (w *Writer) Bytes() []byte {
	return w.buffer[0:w.offset]
}

func (w *Writer) Reset() {
	w.offset = 0
}
