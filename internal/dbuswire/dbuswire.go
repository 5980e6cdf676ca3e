// Package dbuswire implements the subset of the D-Bus wire protocol needed
// to talk to a session bus: message marshalling, the EXTERNAL
// authentication handshake and a blocking connection that filters replies
// from interleaved signals.
package dbuswire

import (
	"errors"
	"fmt"
)

// MessageType is the second byte of every message header.
type MessageType byte

const (
	TypeInvalid MessageType = iota
	TypeMethodCall
	TypeMethodReturn
	TypeError
	TypeSignal
)

func (t MessageType) String() string {
	switch t {
	case TypeMethodCall:
		return "method_call"
	case TypeMethodReturn:
		return "method_return"
	case TypeError:
		return "error"
	case TypeSignal:
		return "signal"
	}
	return fmt.Sprintf("type(%d)", byte(t))
}

// Flags is the third byte of every message header.
type Flags byte

const (
	FlagNoReplyExpected Flags = 0x1
	FlagNoAutoStart     Flags = 0x2
)

// Header field codes.
const (
	FieldPath        byte = 1
	FieldInterface   byte = 2
	FieldMember      byte = 3
	FieldErrorName   byte = 4
	FieldReplySerial byte = 5
	FieldDestination byte = 6
	FieldSender      byte = 7
	FieldSignature   byte = 8
)

const (
	ProtocolVersion byte = 1
	// MaxMessageSize is the largest message the reference daemon accepts.
	MaxMessageSize = 128 << 20

	fixedHeaderSize = 16
)

// Bus daemon coordinates.
const (
	BusName      = "org.freedesktop.DBus"
	BusPath      = "/org/freedesktop/DBus"
	BusInterface = "org.freedesktop.DBus"
)

var (
	ErrMalformed      = errors.New("dbus: malformed message")
	ErrByteOrder      = errors.New("dbus: unsupported byte order")
	ErrConnectionLost = errors.New("dbus: connection lost")
	ErrAuthRejected   = errors.New("dbus: authentication rejected")
	ErrNoBusAddress   = errors.New("dbus: no session bus address")
	ErrTimeout        = errors.New("dbus: timed out")
)

// CallError is a D-Bus ERROR reply to a method call.
type CallError struct {
	Name    string
	Message string
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return "dbus: " + e.Name
	}
	return fmt.Sprintf("dbus: %s: %s", e.Name, e.Message)
}
