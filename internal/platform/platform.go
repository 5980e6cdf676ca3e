// Package platform selects the notification transport for the host OS.
package platform

import (
	"fmt"
	"strings"

	"github.com/example/nativenotify/internal/notify"
)

const (
	BackendAuto     = "auto"
	BackendNative   = "native"
	BackendTerminal = "terminal"
)

// Open returns the backend for this process. The native transport is used
// when it initialized successfully; otherwise the terminal backend is,
// unless BackendNative was requested, in which case the unavailable native
// backend is returned and its calls fail with notify.ErrUnavailable.
func Open(opts Options) notify.Backend {
	if strings.EqualFold(opts.Backend, BackendTerminal) {
		return notify.NewTerminal(opts.Out)
	}
	native := newNative(opts)
	if native.IsAvailable() || strings.EqualFold(opts.Backend, BackendNative) {
		return native
	}
	if err := native.Close(); err != nil {
		opts.Log.Debug().Err(err).Str("backend", native.Name()).Msg("closing unavailable backend")
	}
	opts.Log.Info().Str("backend", native.Name()).Msg("native notifications unavailable, using terminal")
	return notify.NewTerminal(opts.Out)
}

// failed marks cause as a delivery failure of the named transport.
func failed(name string, cause error) error {
	return fmt.Errorf("%s: %w: %w", name, notify.ErrNotificationFailed, cause)
}

func unavailable(name string) error {
	return failed(name, notify.ErrUnavailable)
}
