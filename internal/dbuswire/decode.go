package dbuswire

import (
	"encoding/binary"
	"fmt"
)

// Decoder reads D-Bus values from a byte slice. Every read is bounds
// checked; running past the end yields ErrMalformed.
type Decoder struct {
	b     []byte
	pos   int
	order binary.ByteOrder
}

// NewDecoder returns a Decoder reading b in the given byte order.
func NewDecoder(b []byte, order binary.ByteOrder) *Decoder {
	return &Decoder{b: b, order: order}
}

func (d *Decoder) need(n int) error {
	if n < 0 || d.pos+n > len(d.b) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformed, n, d.pos, len(d.b)-d.pos)
	}
	return nil
}

// Align skips padding up to the next multiple of n.
func (d *Decoder) Align(n int) error {
	pad := (n - d.pos%n) % n
	if err := d.need(pad); err != nil {
		return err
	}
	d.pos += pad
	return nil
}

func (d *Decoder) Byte() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.b[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) Uint32() (uint32, error) {
	if err := d.Align(4); err != nil {
		return 0, err
	}
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := d.order.Uint32(d.b[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint32()
	return int32(v), err
}

// String reads a length-prefixed, NUL-terminated string.
func (d *Decoder) String() (string, error) {
	n, err := d.Uint32()
	if err != nil {
		return "", err
	}
	return d.terminated(int(n))
}

// Signature reads a type signature.
func (d *Decoder) Signature() (string, error) {
	n, err := d.Byte()
	if err != nil {
		return "", err
	}
	return d.terminated(int(n))
}

func (d *Decoder) terminated(n int) (string, error) {
	if err := d.need(n + 1); err != nil {
		return "", err
	}
	s := string(d.b[d.pos : d.pos+n])
	if d.b[d.pos+n] != 0 {
		return "", fmt.Errorf("%w: string not NUL-terminated", ErrMalformed)
	}
	d.pos += n + 1
	return s, nil
}

// ArrayEnd reads an array length, skips the padding before the first
// element and returns the offset one past the last element.
func (d *Decoder) ArrayEnd(elemAlign int) (int, error) {
	n, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	if n > MaxMessageSize {
		return 0, fmt.Errorf("%w: array length %d", ErrMalformed, n)
	}
	if err := d.Align(elemAlign); err != nil {
		return 0, err
	}
	if err := d.need(int(n)); err != nil {
		return 0, err
	}
	return d.pos + int(n), nil
}

// StringArray reads a value of type "as".
func (d *Decoder) StringArray() ([]string, error) {
	end, err := d.ArrayEnd(4)
	if err != nil {
		return nil, err
	}
	items := []string{}
	for d.pos < end {
		s, err := d.String()
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if d.pos != end {
		return nil, fmt.Errorf("%w: array overruns its length", ErrMalformed)
	}
	return items, nil
}

// Skip consumes a sequence of complete values described by sig.
func (d *Decoder) Skip(sig string) error {
	for sig != "" {
		n, err := typeLen(sig)
		if err != nil {
			return err
		}
		if err := d.skipOne(sig[:n]); err != nil {
			return err
		}
		sig = sig[n:]
	}
	return nil
}

func (d *Decoder) skipOne(typ string) error {
	switch c := typ[0]; c {
	case 'y':
		_, err := d.Byte()
		return err
	case 'n', 'q':
		return d.skipFixed(2)
	case 'b', 'i', 'u', 'h':
		return d.skipFixed(4)
	case 'x', 't', 'd':
		return d.skipFixed(8)
	case 's', 'o':
		_, err := d.String()
		return err
	case 'g':
		_, err := d.Signature()
		return err
	case 'v':
		inner, err := d.Signature()
		if err != nil {
			return err
		}
		if n, err := typeLen(inner); err != nil || n != len(inner) {
			return fmt.Errorf("%w: variant signature %q", ErrMalformed, inner)
		}
		return d.Skip(inner)
	case 'a':
		end, err := d.ArrayEnd(alignOf(typ[1]))
		if err != nil {
			return err
		}
		d.pos = end
		return nil
	case '(', '{':
		if err := d.Align(8); err != nil {
			return err
		}
		return d.Skip(typ[1 : len(typ)-1])
	}
	return fmt.Errorf("%w: unknown type code %q", ErrMalformed, typ[0])
}

func (d *Decoder) skipFixed(n int) error {
	if err := d.Align(n); err != nil {
		return err
	}
	if err := d.need(n); err != nil {
		return err
	}
	d.pos += n
	return nil
}

// typeLen returns the length of the first complete type in sig.
func typeLen(sig string) (int, error) {
	if sig == "" {
		return 0, fmt.Errorf("%w: empty signature", ErrMalformed)
	}
	switch c := sig[0]; c {
	case 'y', 'b', 'n', 'q', 'i', 'u', 'x', 't', 'd', 'h', 's', 'o', 'g', 'v':
		return 1, nil
	case 'a':
		n, err := typeLen(sig[1:])
		if err != nil {
			return 0, err
		}
		return n + 1, nil
	case '(', '{':
		closing := byte(')')
		if c == '{' {
			closing = '}'
		}
		i := 1
		for i < len(sig) && sig[i] != closing {
			n, err := typeLen(sig[i:])
			if err != nil {
				return 0, err
			}
			i += n
		}
		if i >= len(sig) || i == 1 {
			return 0, fmt.Errorf("%w: unbalanced signature %q", ErrMalformed, sig)
		}
		return i + 1, nil
	}
	return 0, fmt.Errorf("%w: unknown type code %q", ErrMalformed, sig[0])
}

func alignOf(c byte) int {
	switch c {
	case 'n', 'q':
		return 2
	case 'b', 'i', 'u', 'h', 's', 'o', 'a':
		return 4
	case 'x', 't', 'd', '(', '{':
		return 8
	}
	return 1
}
