package dbuswire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"
)

// The tests use godbus as an independent implementation of the protocol:
// anything we write must decode with it, and anything it writes must
// decode with us.

func godbusReturn(replySerial uint32, body ...interface{}) *dbus.Message {
	m := &dbus.Message{
		Type: dbus.TypeMethodReply,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldReplySerial: dbus.MakeVariant(replySerial),
			dbus.FieldSender:      dbus.MakeVariant("org.freedesktop.DBus"),
		},
		Body: body,
	}
	if len(body) > 0 {
		m.Headers[dbus.FieldSignature] = dbus.MakeVariant(dbus.SignatureOf(body...))
	}
	return m
}

func godbusError(replySerial uint32, name, text string) *dbus.Message {
	return &dbus.Message{
		Type: dbus.TypeError,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldReplySerial: dbus.MakeVariant(replySerial),
			dbus.FieldErrorName:   dbus.MakeVariant(name),
			dbus.FieldSignature:   dbus.MakeVariant(dbus.SignatureOf(text)),
		},
		Body: []interface{}{text},
	}
}

func godbusSignal(path, iface, member string, body ...interface{}) *dbus.Message {
	m := &dbus.Message{
		Type: dbus.TypeSignal,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldPath:      dbus.MakeVariant(dbus.ObjectPath(path)),
			dbus.FieldInterface: dbus.MakeVariant(iface),
			dbus.FieldMember:    dbus.MakeVariant(member),
		},
		Body: body,
	}
	if len(body) > 0 {
		m.Headers[dbus.FieldSignature] = dbus.MakeVariant(dbus.SignatureOf(body...))
	}
	return m
}

func encodeGodbus(t *testing.T, m *dbus.Message, order binary.ByteOrder) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, m.EncodeTo(&buf, order))
	return buf.Bytes()
}

func decodeWithGodbus(t *testing.T, b []byte) *dbus.Message {
	t.Helper()
	m, err := dbus.DecodeMessage(bytes.NewReader(b))
	require.NoError(t, err)
	return m
}

func header(m *dbus.Message, f dbus.HeaderField) interface{} {
	v, ok := m.Headers[f]
	if !ok {
		return nil
	}
	return v.Value()
}

// returnWithoutReplySerial builds a METHOD_RETURN frame carrying a single
// uint32 but no REPLY_SERIAL field. godbus refuses to encode one.
func returnWithoutReplySerial(serial, value uint32) []byte {
	e := NewEncoder()
	e.Byte('l')
	e.Byte(byte(TypeMethodReturn))
	e.Byte(0)
	e.Byte(ProtocolVersion)
	e.Uint32(4)
	e.Uint32(serial)
	e.Array(8, func(e *Encoder) {
		e.Struct(func(e *Encoder) {
			e.Byte(FieldSignature)
			e.Variant("g", func(e *Encoder) { e.Signature("u") })
		})
	})
	e.Align(8)
	e.Uint32(value)
	return e.Bytes()
}
