package main

import (
	"errors"

	"github.com/example/nativenotify/internal/dbuswire"
	"github.com/example/nativenotify/internal/notify"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitUnavailable = 3
	exitDelivery    = 4
	exitTimeout     = 5
	exitProtocol    = 6
)

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	var uerr *UsageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &uerr), errors.Is(err, errInvalid):
		return exitUsage
	case errors.Is(err, notify.ErrTimeout):
		return exitTimeout
	case errors.Is(err, dbuswire.ErrMalformed), errors.Is(err, dbuswire.ErrByteOrder):
		return exitProtocol
	case errors.Is(err, notify.ErrUnavailable):
		return exitUnavailable
	case errors.Is(err, notify.ErrNotificationFailed):
		return exitDelivery
	}
	return exitFailure
}

// hint suggests a remedy for well-known failures.
func hint(err error) string {
	switch {
	case dbuswire.IsCallError(err, "org.freedesktop.DBus.Error.ServiceUnknown"):
		return "no notification server is running; start one such as dunst or mako"
	case errors.Is(err, notify.ErrUnavailable):
		return "run \"nativenotify status\" to see why, or use -backend terminal"
	case errors.Is(err, notify.ErrTimeout):
		return "no action was chosen in time; raise -wait-timeout"
	}
	return ""
}
