package dbuswire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Message is a single D-Bus message. Body holds the marshalled arguments
// described by Signature.
type Message struct {
	Type        MessageType
	Flags       Flags
	Serial      uint32
	Path        string
	Interface   string
	Member      string
	ErrorName   string
	ReplySerial uint32
	Destination string
	Sender      string
	Signature   string
	Body        []byte

	// Order is the byte order of Body on received messages.
	Order binary.ByteOrder
}

// BodyDecoder returns a decoder positioned at the start of the message body.
func (m *Message) BodyDecoder() *Decoder {
	order := m.Order
	if order == nil {
		order = binary.LittleEndian
	}
	return NewDecoder(m.Body, order)
}

func (m *Message) validate() error {
	if m.Serial == 0 {
		return fmt.Errorf("%w: zero serial", ErrMalformed)
	}
	switch m.Type {
	case TypeMethodCall:
		if m.Path == "" || m.Member == "" {
			return fmt.Errorf("%w: method call needs path and member", ErrMalformed)
		}
	case TypeSignal:
		if m.Path == "" || m.Interface == "" || m.Member == "" {
			return fmt.Errorf("%w: signal needs path, interface and member", ErrMalformed)
		}
	case TypeMethodReturn:
		if m.ReplySerial == 0 {
			return fmt.Errorf("%w: method return needs reply serial", ErrMalformed)
		}
	case TypeError:
		if m.ReplySerial == 0 || m.ErrorName == "" {
			return fmt.Errorf("%w: error needs name and reply serial", ErrMalformed)
		}
	default:
		return fmt.Errorf("%w: message type %d", ErrMalformed, m.Type)
	}
	if len(m.Signature) > 255 {
		return fmt.Errorf("%w: signature too long", ErrMalformed)
	}
	return nil
}

// Marshal serializes the message in little-endian byte order. Body must
// already be little-endian.
func (m *Message) Marshal() ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	e := NewEncoder()
	e.Byte('l')
	e.Byte(byte(m.Type))
	e.Byte(byte(m.Flags))
	e.Byte(ProtocolVersion)
	e.Uint32(uint32(len(m.Body)))
	e.Uint32(m.Serial)
	e.Array(8, func(e *Encoder) {
		str := func(code byte, sig, v string) {
			if v == "" {
				return
			}
			e.Struct(func(e *Encoder) {
				e.Byte(code)
				e.Variant(sig, func(e *Encoder) {
					if sig == "g" {
						e.Signature(v)
						return
					}
					e.String(v)
				})
			})
		}
		str(FieldPath, "o", m.Path)
		str(FieldInterface, "s", m.Interface)
		str(FieldMember, "s", m.Member)
		str(FieldErrorName, "s", m.ErrorName)
		if m.ReplySerial != 0 {
			e.Struct(func(e *Encoder) {
				e.Byte(FieldReplySerial)
				e.Variant("u", func(e *Encoder) { e.Uint32(m.ReplySerial) })
			})
		}
		str(FieldDestination, "s", m.Destination)
		str(FieldSender, "s", m.Sender)
		str(FieldSignature, "g", m.Signature)
	})
	e.Align(8)
	if e.Len()+len(m.Body) > MaxMessageSize {
		return nil, fmt.Errorf("%w: message exceeds %d bytes", ErrMalformed, MaxMessageSize)
	}
	return append(e.Bytes(), m.Body...), nil
}

// ReadMessage reads exactly one message from r.
//
// When the frame was read completely but its header fields could not be
// decoded or a reply lacks its reply serial, ReadMessage returns the partially filled message together with
// an error wrapping ErrMalformed; the stream is still in sync and the
// caller may continue reading. A nil message means the stream is unusable.
func ReadMessage(r io.Reader) (*Message, error) {
	var fixed [fixedHeaderSize]byte
	if err := readFull(r, fixed[:]); err != nil {
		return nil, err
	}

	var order binary.ByteOrder
	switch fixed[0] {
	case 'l':
		order = binary.LittleEndian
	case 'B':
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: %q", ErrByteOrder, fixed[0])
	}

	bodyLen := order.Uint32(fixed[4:])
	fieldsLen := order.Uint32(fixed[12:])
	if uint64(fixedHeaderSize)+uint64(fieldsLen)+uint64(bodyLen)+7 > MaxMessageSize {
		return nil, fmt.Errorf("%w: message of %d+%d bytes", ErrMalformed, fieldsLen, bodyLen)
	}
	headerEnd := align8(fixedHeaderSize + int(fieldsLen))

	frame := make([]byte, headerEnd+int(bodyLen))
	copy(frame, fixed[:])
	if err := readFull(r, frame[fixedHeaderSize:]); err != nil {
		return nil, err
	}

	m := &Message{
		Type:   MessageType(fixed[1]),
		Flags:  Flags(fixed[2]),
		Serial: order.Uint32(fixed[8:]),
		Body:   frame[headerEnd:],
		Order:  order,
	}
	if fixed[3] != ProtocolVersion {
		return m, fmt.Errorf("%w: protocol version %d", ErrMalformed, fixed[3])
	}
	d := NewDecoder(frame[:headerEnd], order)
	d.pos = 12
	if err := m.decodeFields(d); err != nil {
		return m, err
	}
	if m.Type == TypeMethodReturn || m.Type == TypeError {
		if m.ReplySerial == 0 {
			return m, fmt.Errorf("%w: %s without reply serial", ErrMalformed, m.Type)
		}
	}
	return m, nil
}

func (m *Message) decodeFields(d *Decoder) error {
	end, err := d.ArrayEnd(8)
	if err != nil {
		return err
	}
	for d.pos < end {
		if err := d.Align(8); err != nil {
			return err
		}
		code, err := d.Byte()
		if err != nil {
			return err
		}
		sig, err := d.Signature()
		if err != nil {
			return err
		}
		want, known := fieldSignatures[code]
		if !known || sig != want {
			if err := d.Skip(sig); err != nil {
				return err
			}
			continue
		}
		switch code {
		case FieldReplySerial:
			m.ReplySerial, err = d.Uint32()
		case FieldSignature:
			m.Signature, err = d.Signature()
		default:
			var s string
			s, err = d.String()
			switch code {
			case FieldPath:
				m.Path = s
			case FieldInterface:
				m.Interface = s
			case FieldMember:
				m.Member = s
			case FieldErrorName:
				m.ErrorName = s
			case FieldDestination:
				m.Destination = s
			case FieldSender:
				m.Sender = s
			}
		}
		if err != nil {
			return err
		}
	}
	if d.pos != end {
		return fmt.Errorf("%w: header fields overrun their length", ErrMalformed)
	}
	return nil
}

var fieldSignatures = map[byte]string{
	FieldPath:        "o",
	FieldInterface:   "s",
	FieldMember:      "s",
	FieldErrorName:   "s",
	FieldReplySerial: "u",
	FieldDestination: "s",
	FieldSender:      "s",
	FieldSignature:   "g",
}

func readFull(r io.Reader, p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %w", ErrConnectionLost, err)
		}
		return err
	}
	return nil
}

func align8(n int) int {
	return (n + 7) &^ 7
}
