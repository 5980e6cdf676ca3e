package platform

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Options configures backend selection and the native transports.
type Options struct {
	// Backend is "auto" (or empty) for the native transport with terminal
	// fallback, "native" to disable the fallback, or "terminal" to skip
	// native delivery.
	Backend string
	// Log receives initialization failures and per-call diagnostics.
	Log zerolog.Logger
	// Out is where the terminal backend writes. Defaults to stderr.
	Out io.Writer

	Linux   LinuxOptions
	Windows WindowsOptions
	Darwin  DarwinOptions
}

// LinuxOptions configures the session bus transport.
type LinuxOptions struct {
	// BusAddress overrides DBUS_SESSION_BUS_ADDRESS when non-empty.
	BusAddress string
}

// WindowsOptions configures the toast transport.
type WindowsOptions struct {
	// AppID is the AppUserModelID stamped on the Start Menu shortcut.
	AppID string
	// ShortcutName is the file name of the shortcut without extension.
	ShortcutName string
	// Interpreter runs the display script. Defaults to powershell.exe.
	Interpreter string
}

// DarwinOptions configures the UserNotifications transport.
type DarwinOptions struct {
	// CallbackWait bounds how long to wait for framework callbacks.
	CallbackWait time.Duration
}

const (
	DefaultAppID        = "NativeNotify.CLI"
	DefaultShortcutName = "NativeNotify"
	DefaultInterpreter  = "powershell.exe"
	DefaultCallbackWait = 500 * time.Millisecond
)
