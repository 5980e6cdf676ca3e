//go:build linux

package platform

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/example/nativenotify/internal/dbuswire"
	"github.com/example/nativenotify/internal/notify"
)

// fakeDaemon answers the handshake and the calls of one test.
type fakeDaemon struct {
	f *os.File
}

func (d *fakeDaemon) line() (string, error) {
	var line []byte
	var c [1]byte
	for {
		if _, err := d.f.Read(c[:]); err != nil {
			return "", err
		}
		if c[0] == '\n' {
			return strings.TrimSuffix(string(line), "\r"), nil
		}
		line = append(line, c[0])
	}
}

func (d *fakeDaemon) read() (*dbus.Message, error) { return dbus.DecodeMessage(d.f) }

func (d *fakeDaemon) reply(to *dbus.Message, body ...interface{}) error {
	m := &dbus.Message{
		Type: dbus.TypeMethodReply,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldReplySerial: dbus.MakeVariant(to.Serial()),
		},
		Body: body,
	}
	if len(body) > 0 {
		m.Headers[dbus.FieldSignature] = dbus.MakeVariant(dbus.SignatureOf(body...))
	}
	return m.EncodeTo(d.f, binary.LittleEndian)
}

func (d *fakeDaemon) handshake() error {
	if _, err := d.line(); err != nil {
		return err
	}
	if _, err := d.f.WriteString("OK 00ff\r\n"); err != nil {
		return err
	}
	if l, err := d.line(); err != nil || l != "BEGIN" {
		return fmt.Errorf("expected BEGIN, got %q (%v)", l, err)
	}
	hello, err := d.read()
	if err != nil {
		return err
	}
	return d.reply(hello, ":1.7")
}

// answer replies to the next call, which must be member.
func (d *fakeDaemon) answer(member string, body ...interface{}) error {
	m, err := d.read()
	if err != nil {
		return err
	}
	if got := m.Headers[dbus.FieldMember].Value(); got != member {
		return fmt.Errorf("expected %s, got %v", member, got)
	}
	return d.reply(m, body...)
}

func newTestLinux(t *testing.T, script func(d *fakeDaemon) error) (*linuxBackend, <-chan error) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	d := &fakeDaemon{f: os.NewFile(uintptr(fds[1]), "daemon")}
	t.Cleanup(func() { _ = d.f.Close() })

	done := make(chan error, 1)
	go func() {
		if err := d.handshake(); err != nil {
			done <- err
			return
		}
		done <- script(d)
	}()

	b := &linuxBackend{log: zerolog.Nop()}
	require.NoError(t, b.attach(dbuswire.FromFD(fds[0])))
	t.Cleanup(func() { _ = b.Close() })
	return b, done
}

func TestLinuxBackendSend(t *testing.T) {
	b, done := newTestLinux(t, func(d *fakeDaemon) error {
		return d.answer("Notify", uint32(31))
	})
	require.True(t, b.IsAvailable())
	assert.Equal(t, "linux", b.Name())

	id, err := b.Send(notify.Request{AppName: "test", Title: "Hi"})
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, uint32(31), id)
}

func TestLinuxBackendCapabilities(t *testing.T) {
	b, done := newTestLinux(t, func(d *fakeDaemon) error {
		return d.answer("GetCapabilities", []string{"actions", "body", "icon-static"})
	})
	caps := b.Capabilities()
	require.NoError(t, <-done)
	assert.Equal(t, "actions,body,icon-static", caps)
	assert.Contains(t, strings.Split(caps, ","), "body")
}

func TestLinuxBackendCapabilitiesFailure(t *testing.T) {
	b, done := newTestLinux(t, func(d *fakeDaemon) error {
		return d.answer("GetCapabilities", "not a list")
	})
	assert.Equal(t, "", b.Capabilities())
	require.NoError(t, <-done)
}

func TestLinuxBackendWaitActionTimeout(t *testing.T) {
	b, done := newTestLinux(t, func(d *fakeDaemon) error {
		return d.answer("AddMatch")
	})
	_, err := b.WaitAction(3, 30*time.Millisecond)
	require.NoError(t, <-done)
	assert.ErrorIs(t, err, notify.ErrTimeout)
}

func TestLinuxBackendSendErrorIsDeliveryFailure(t *testing.T) {
	b, done := newTestLinux(t, func(d *fakeDaemon) error {
		m, err := d.read()
		if err != nil {
			return err
		}
		e := &dbus.Message{
			Type: dbus.TypeError,
			Headers: map[dbus.HeaderField]dbus.Variant{
				dbus.FieldReplySerial: dbus.MakeVariant(m.Serial()),
				dbus.FieldErrorName:   dbus.MakeVariant("org.freedesktop.DBus.Error.ServiceUnknown"),
			},
		}
		return e.EncodeTo(d.f, binary.LittleEndian)
	})
	_, err := b.Send(notify.Request{Title: "Hi"})
	require.NoError(t, <-done)
	assert.ErrorIs(t, err, notify.ErrNotificationFailed)
	assert.True(t, dbuswire.IsCallError(err, "org.freedesktop.DBus.Error.ServiceUnknown"))
}

func TestLinuxBackendUnavailable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-bus")
	b := newLinux(Options{Log: zerolog.Nop(), Linux: LinuxOptions{BusAddress: "unix:path=" + missing}})
	assert.False(t, b.IsAvailable())

	_, err := b.Send(notify.Request{Title: "Hi"})
	assert.ErrorIs(t, err, notify.ErrNotificationFailed)
	assert.ErrorIs(t, err, notify.ErrUnavailable)
	assert.Equal(t, "", b.Capabilities())
	assert.NoError(t, b.Close())
}

func TestOpenFallsBackToTerminal(t *testing.T) {
	var out bytes.Buffer
	missing := filepath.Join(t.TempDir(), "no-bus")
	b := Open(Options{
		Log:   zerolog.Nop(),
		Out:   &out,
		Linux: LinuxOptions{BusAddress: "unix:path=" + missing},
	})
	assert.Equal(t, "terminal", b.Name())

	_, err := b.Send(notify.Request{Title: "fallback"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "fallback")
}

func TestOpenNativeKeepsUnavailableBackend(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-bus")
	b := Open(Options{
		Backend: BackendNative,
		Log:     zerolog.Nop(),
		Linux:   LinuxOptions{BusAddress: "unix:path=" + missing},
	})
	assert.Equal(t, "linux", b.Name())
	assert.False(t, b.IsAvailable())

	_, err := b.Send(notify.Request{Title: "Hi"})
	assert.ErrorIs(t, err, notify.ErrUnavailable)
	assert.NoError(t, b.Close())
}
