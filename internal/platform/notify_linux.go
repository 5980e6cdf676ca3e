//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/nativenotify/internal/dbuswire"
	"github.com/example/nativenotify/internal/fdo"
	"github.com/example/nativenotify/internal/notify"
)

const linuxName = "linux"

// linuxBackend delivers notifications through the session bus.
type linuxBackend struct {
	log    zerolog.Logger
	conn   *dbuswire.Conn
	client *fdo.Client
}

func newNative(opts Options) notify.Backend {
	return newLinux(opts)
}

func newLinux(opts Options) *linuxBackend {
	b := &linuxBackend{log: opts.Log.With().Str("backend", linuxName).Logger()}

	addr, err := busAddress(opts.Linux.BusAddress)
	if err != nil {
		b.log.Warn().Err(err).Msg("no session bus")
		return b
	}
	t, err := dbuswire.Dial(addr)
	if err != nil {
		b.log.Warn().Err(err).Stringer("address", addr).Msg("dial session bus")
		return b
	}
	if err := b.attach(t); err != nil {
		b.log.Warn().Err(err).Stringer("address", addr).Msg("session bus handshake")
		_ = t.Close()
	}
	return b
}

func busAddress(override string) (dbuswire.Address, error) {
	if override != "" {
		return dbuswire.ParseAddress(override)
	}
	return dbuswire.SessionBusAddress()
}

// attach authenticates over t and registers with the bus. On success the
// backend becomes available.
func (b *linuxBackend) attach(t dbuswire.Transport) error {
	conn := dbuswire.NewConn(t, b.log)
	if err := conn.Authenticate(os.Getuid()); err != nil {
		return err
	}
	if err := conn.Hello(); err != nil {
		return err
	}
	b.conn = conn
	b.client = fdo.NewClient(conn)
	b.log.Debug().Str("unique_name", conn.UniqueName()).Str("guid", conn.ServerGUID()).Msg("connected to session bus")

	if b.log.GetLevel() <= zerolog.DebugLevel {
		if info, err := b.client.GetServerInformation(); err == nil {
			b.log.Debug().
				Str("server", info.Name).
				Str("vendor", info.Vendor).
				Str("version", info.Version).
				Str("spec_version", info.SpecVersion).
				Msg("notification server")
		}
	}
	return nil
}

func (b *linuxBackend) Name() string { return linuxName }

func (b *linuxBackend) IsAvailable() bool { return b.client != nil }

func (b *linuxBackend) Send(req notify.Request) (uint32, error) {
	if b.client == nil {
		return 0, unavailable(linuxName)
	}
	id, err := b.client.Notify(req)
	if err != nil {
		return 0, failed(linuxName, err)
	}
	return id, nil
}

func (b *linuxBackend) CloseNotification(id uint32) error {
	if b.client == nil {
		return unavailable(linuxName)
	}
	if err := b.client.CloseNotification(id); err != nil {
		return failed(linuxName, err)
	}
	return nil
}

// Capabilities returns the server capabilities joined with commas, or ""
// when they could not be queried.
func (b *linuxBackend) Capabilities() string {
	if b.client == nil {
		return ""
	}
	caps, err := b.client.GetCapabilities()
	if err != nil {
		b.log.Warn().Err(err).Msg("get capabilities")
		return ""
	}
	return strings.Join(caps, ",")
}

// WaitAction implements notify.ActionWaiter.
func (b *linuxBackend) WaitAction(id uint32, timeout time.Duration) (string, error) {
	if b.client == nil {
		return "", unavailable(linuxName)
	}
	key, err := b.client.WaitActionInvoked(id, timeout)
	switch {
	case errors.Is(err, dbuswire.ErrTimeout):
		return "", fmt.Errorf("%w: %w", notify.ErrTimeout, err)
	case err != nil:
		return "", failed(linuxName, err)
	}
	return key, nil
}

func (b *linuxBackend) Close() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn, b.client = nil, nil
	return err
}
