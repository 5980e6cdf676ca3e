package notify

import "errors"

var (
	// ErrNotificationFailed is returned when the OS refused or failed to
	// display a notification.
	ErrNotificationFailed = errors.New("notification failed")
	// ErrUnavailable marks calls on a backend whose initialization failed.
	ErrUnavailable = errors.New("notification backend unavailable")
	// ErrTimeout is returned by ActionWaiter when no action was invoked in time.
	ErrTimeout = errors.New("timed out waiting for notification action")
	// ErrUnsupported is returned by best-effort operations a transport
	// cannot perform.
	ErrUnsupported = errors.New("operation not supported by notification backend")
)
