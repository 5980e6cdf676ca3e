package dbuswire

import "encoding/binary"

// Encoder appends little-endian D-Bus values to a buffer. Alignment is
// computed from the start of the buffer, so a body encoder must start at a
// position that is 8-byte aligned within the final message, which Marshal
// guarantees.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded data.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Align pads with zero bytes up to the next multiple of n.
func (e *Encoder) Align(n int) {
	for len(e.buf)%n != 0 {
		e.buf = append(e.buf, 0)
	}
}

func (e *Encoder) Byte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *Encoder) Int32(v int32) {
	e.Uint32(uint32(v))
}

func (e *Encoder) Uint32(v uint32) {
	e.Align(4)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// String writes a length-prefixed, NUL-terminated string.
func (e *Encoder) String(s string) {
	e.Uint32(uint32(len(s)))
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
}

// Signature writes a type signature, which carries a single length byte.
func (e *Encoder) Signature(sig string) {
	e.buf = append(e.buf, byte(len(sig)))
	e.buf = append(e.buf, sig...)
	e.buf = append(e.buf, 0)
}

// Variant writes the signature of the contained value followed by the
// value itself, produced by fn.
func (e *Encoder) Variant(sig string, fn func(*Encoder)) {
	e.Signature(sig)
	fn(e)
}

// Array writes an array whose elements have the given alignment. The
// length word counts the element bytes only, excluding the padding that
// precedes the first element.
func (e *Encoder) Array(elemAlign int, fn func(*Encoder)) {
	e.Align(4)
	at := len(e.buf)
	e.buf = append(e.buf, 0, 0, 0, 0)
	e.Align(elemAlign)
	start := len(e.buf)
	fn(e)
	binary.LittleEndian.PutUint32(e.buf[at:], uint32(len(e.buf)-start))
}

// Struct aligns to 8 and writes the fields produced by fn. Dict entries
// use the same layout.
func (e *Encoder) Struct(fn func(*Encoder)) {
	e.Align(8)
	fn(e)
}

// StringArray writes a value of type "as".
func (e *Encoder) StringArray(items []string) {
	e.Array(4, func(e *Encoder) {
		for _, s := range items {
			e.String(s)
		}
	})
}
