package provision

import "encoding/binary"

// All multi-byte integers on the wire are little-endian, in both the outer
// header and the inner payload.

// reader walks a message buffer, validating that every field fits inside the
// remaining bytes before it is read. Reads past the end fail with a
// MalformedMessage error instead of panicking or reading out of bounds.
type reader struct {
	buf []byte
	off int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, newError(KindMalformedMessage, "field of %d bytes exceeds %d remaining", n, r.remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// int32 reads a 4-byte length field and rejects negative values, which can
// never describe a valid field size.
func (r *reader) int32() (int32, error) {
	v, err := r.uint32()
	if err != nil {
		return 0, err
	}
	if int32(v) < 0 {
		return 0, newError(KindMalformedMessage, "negative length field %d", int32(v))
	}
	return int32(v), nil
}

// writer builds a message buffer. Writes cannot fail.
type writer struct {
	buf []byte
}

func newWriter(capacity int) *writer {
	return &writer{buf: make([]byte, 0, capacity)}
}

func (w *writer) bytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) byte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) int32(v int32) {
	w.uint32(uint32(v))
}
