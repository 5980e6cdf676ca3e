package dbuswire

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Transport is a byte stream to the bus with a readiness wait.
type Transport interface {
	io.ReadWriteCloser
	// WaitReadable blocks until data can be read. A timeout of zero or
	// less waits indefinitely; expiry returns ErrTimeout.
	WaitReadable(timeout time.Duration) error
}

// Conn is a blocking, single-caller connection to a message bus. It is not
// safe for concurrent use.
type Conn struct {
	t      Transport
	log    zerolog.Logger
	serial uint32
	guid   string
	name   string
	// broken is set once the stream lost framing; every later call fails.
	broken error
}

// NewConn wraps an established transport. Authenticate and Hello must be
// called before any other method.
func NewConn(t Transport, log zerolog.Logger) *Conn {
	return &Conn{t: t, log: log}
}

// UniqueName returns the name assigned by the bus in reply to Hello.
func (c *Conn) UniqueName() string { return c.name }

// ServerGUID returns the GUID the server reported during authentication.
func (c *Conn) ServerGUID() string { return c.guid }

// Close closes the underlying transport.
func (c *Conn) Close() error {
	return c.t.Close()
}

// Authenticate performs the EXTERNAL SASL exchange for uid and switches
// the stream to message mode.
func (c *Conn) Authenticate(uid int) error {
	hexUID := hex.EncodeToString([]byte(strconv.Itoa(uid)))
	if _, err := io.WriteString(c.t, "\x00AUTH EXTERNAL "+hexUID+"\r\n"); err != nil {
		return fmt.Errorf("dbus: write auth: %w", err)
	}
	line, err := c.readLine()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, "OK ") {
		return fmt.Errorf("%w: %q", ErrAuthRejected, line)
	}
	c.guid = strings.TrimSpace(strings.TrimPrefix(line, "OK "))
	if _, err := io.WriteString(c.t, "BEGIN\r\n"); err != nil {
		return fmt.Errorf("dbus: write begin: %w", err)
	}
	return nil
}

// readLine reads one CRLF terminated line without consuming anything past
// it, since the binary protocol follows immediately after BEGIN.
func (c *Conn) readLine() (string, error) {
	var line []byte
	var b [1]byte
	for len(line) < 512 {
		if err := readFull(c.t, b[:]); err != nil {
			return "", fmt.Errorf("dbus: read auth reply: %w", err)
		}
		if b[0] == '\n' {
			return strings.TrimSuffix(string(line), "\r"), nil
		}
		line = append(line, b[0])
	}
	return "", fmt.Errorf("%w: auth line too long", ErrAuthRejected)
}

// Hello registers the connection with the bus daemon.
func (c *Conn) Hello() error {
	reply, err := c.Call(&Message{
		Type:        TypeMethodCall,
		Path:        BusPath,
		Interface:   BusInterface,
		Member:      "Hello",
		Destination: BusName,
	})
	if err != nil {
		return fmt.Errorf("dbus: hello: %w", err)
	}
	if reply.Signature == "s" {
		if name, err := reply.BodyDecoder().String(); err == nil {
			c.name = name
		}
	}
	return nil
}

// AddMatch asks the bus to route messages matching rule to this connection.
func (c *Conn) AddMatch(rule string) error {
	e := NewEncoder()
	e.String(rule)
	_, err := c.Call(&Message{
		Type:        TypeMethodCall,
		Path:        BusPath,
		Interface:   BusInterface,
		Member:      "AddMatch",
		Destination: BusName,
		Signature:   "s",
		Body:        e.Bytes(),
	})
	if err != nil {
		return fmt.Errorf("dbus: add match: %w", err)
	}
	return nil
}

// Send assigns the next serial to m and writes it without waiting for a
// reply.
func (c *Conn) Send(m *Message) (uint32, error) {
	if c.broken != nil {
		return 0, c.broken
	}
	c.serial++
	if c.serial == 0 {
		c.serial++
	}
	m.Serial = c.serial
	b, err := m.Marshal()
	if err != nil {
		return 0, err
	}
	if _, err := c.t.Write(b); err != nil {
		return 0, fmt.Errorf("%w: write: %w", ErrConnectionLost, err)
	}
	return m.Serial, nil
}

// Call sends m and blocks until the matching METHOD_RETURN arrives. Signals
// and replies to other calls received in the meantime are discarded. An
// ERROR reply is returned as *CallError.
func (c *Conn) Call(m *Message) (*Message, error) {
	serial, err := c.Send(m)
	if err != nil {
		return nil, err
	}
	for {
		reply, err := c.next(c.t)
		if err != nil {
			return nil, err
		}
		switch reply.Type {
		case TypeMethodReturn:
			if reply.ReplySerial == serial {
				return reply, nil
			}
		case TypeError:
			if reply.ReplySerial == serial {
				return nil, callError(reply)
			}
		}
		c.log.Trace().
			Stringer("type", reply.Type).
			Uint32("reply_serial", reply.ReplySerial).
			Str("member", reply.Member).
			Msg("skipping message while waiting for reply")
	}
}

// WaitSignal blocks until a signal accepted by match arrives or timeout
// elapses. A timeout of zero waits indefinitely. The timeout also bounds
// reading a message that has started to arrive; expiring inside one leaves
// the connection unusable.
func (c *Conn) WaitSignal(match func(*Message) bool, timeout time.Duration) (*Message, error) {
	if c.broken != nil {
		return nil, c.broken
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		var r io.Reader = c.t
		var dr *deadlineReader
		if !deadline.IsZero() {
			dr = &deadlineReader{t: c.t, deadline: deadline}
			r = dr
		}
		msg, err := c.next(r)
		if err != nil {
			if dr != nil && dr.started && errors.Is(err, ErrTimeout) {
				c.broken = fmt.Errorf("%w: timed out inside a message", ErrConnectionLost)
			}
			return nil, err
		}
		if msg.Type == TypeSignal && match(msg) {
			return msg, nil
		}
	}
}

// deadlineReader waits for readability before every read and gives up at
// deadline. started records whether any bytes of the message being read
// were consumed.
type deadlineReader struct {
	t        Transport
	deadline time.Time
	started  bool
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	wait := time.Until(r.deadline)
	if wait <= 0 {
		return 0, ErrTimeout
	}
	if err := r.t.WaitReadable(wait); err != nil {
		return 0, err
	}
	n, err := r.t.Read(p)
	if n > 0 {
		r.started = true
	}
	return n, err
}

// next returns the next well-formed message read from r, skipping frames
// whose header could not be decoded.
func (c *Conn) next(r io.Reader) (*Message, error) {
	for {
		if dr, ok := r.(*deadlineReader); ok {
			dr.started = false
		}
		msg, err := ReadMessage(r)
		if err == nil {
			return msg, nil
		}
		if msg == nil {
			return nil, err
		}
		c.log.Debug().Err(err).Uint32("serial", msg.Serial).Msg("skipping malformed message")
	}
}

func callError(m *Message) error {
	ce := &CallError{Name: m.ErrorName}
	if strings.HasPrefix(m.Signature, "s") {
		if text, err := m.BodyDecoder().String(); err == nil {
			ce.Message = text
		}
	}
	return ce
}

// IsCallError reports whether err is an ERROR reply with the given name.
func IsCallError(err error, name string) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Name == name
}
