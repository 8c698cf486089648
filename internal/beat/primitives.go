package beat

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cartomix/cwp/internal/cwperrors"
)

// Writer accumulates encoded bytes the way the teacher's exporters build up
// a bytes.Buffer, but positional: callers that need to back-patch a region
// (see internal/provider) write directly into the backing slice by offset.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer pre-sized to n bytes (callers pre-compute the
// exact output size via encodedLength/totalEncodedLength and allocate once).
func NewWriter(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the current offset, i.e. how many bytes have been written.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) WriteUint8(v uint8)   { w.buf = append(w.buf, v) }
func (w *Writer) WriteInt8(v int8)     { w.buf = append(w.buf, byte(v)) }
func (w *Writer) WriteBytes(b []byte)  { w.buf = append(w.buf, b...) }

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

func (w *Writer) WriteFloat16(v Float16) {
	w.WriteUint16(uint16(v))
}

// WriteString writes the UTF-8 bytes of s followed by a terminating NUL.
// s must not itself contain a NUL byte.
func (w *Writer) WriteString(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return fmt.Errorf("beat: string contains NUL byte")
		}
	}
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	return nil
}

// EncodedStringLength returns utf8ByteLen(s) + 1 for the terminating NUL.
func EncodedStringLength(s string) int {
	return len(s) + 1
}

// Reader walks a byte slice, decoding primitives in order. It keeps the
// backing slice as given; ReadBytes and Slice return copies, never
// sub-slices that alias it.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// NewReaderAt wraps buf for sequential decoding starting at the given
// absolute offset (used when a provider's blob lives at a baked-in offset
// inside a larger Music buffer).
func NewReaderAt(buf []byte, offset int) *Reader {
	return &Reader{buf: buf, pos: offset}
}

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns how many bytes are left to read.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("beat: unexpected end of buffer: need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (r *Reader) ReadFloat16() (Float16, error) {
	v, err := r.ReadUint16()
	if err != nil {
		return 0, err
	}
	return Float16(v), nil
}

// ReadBytes reads and returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadString reads bytes up to (and past) a NUL terminator and returns the
// UTF-8 string preceding it. Returns cwperrors.ErrStringNotTerminated if the
// buffer ends first.
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	for r.pos < len(r.buf) {
		if r.buf[r.pos] == 0 {
			s := string(r.buf[start:r.pos])
			r.pos++
			return s, nil
		}
		r.pos++
	}
	r.pos = start
	return "", cwperrors.ErrStringNotTerminated
}

// Peek returns the next byte without advancing the read cursor.
func (r *Reader) Peek() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.buf[r.pos], nil
}

// Skip advances the read cursor by n bytes without returning them.
func (r *Reader) Skip(n int) {
	r.pos += n
}

// Slice returns a copy of an arbitrary absolute region of the backing
// buffer, independent of the sequential read cursor. Used to resolve
// embedded-blob offsets that were baked in as absolute positions at
// decode time.
func (r *Reader) Slice(offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > len(r.buf) {
		return nil, fmt.Errorf("beat: slice [%d:%d] out of range (buffer length %d)", offset, offset+length, len(r.buf))
	}
	out := make([]byte, length)
	copy(out, r.buf[offset:offset+length])
	return out, nil
}

// ReadBeatDelta reads a (numerator, denominator) uint32 pair as written on
// the wire for a beat delta.
func (r *Reader) ReadBeatDelta() (n, d uint32, err error) {
	n, err = r.ReadUint32()
	if err != nil {
		return 0, 0, err
	}
	d, err = r.ReadUint32()
	if err != nil {
		return 0, 0, err
	}
	if d == 0 {
		return 0, 0, fmt.Errorf("beat: zero-denominator delta")
	}
	return n, d, nil
}

// WriteBeatDelta writes a beat delta as two little-endian uint32s.
func (w *Writer) WriteBeatDelta(n, d uint32) {
	w.WriteUint32(n)
	w.WriteUint32(d)
}
