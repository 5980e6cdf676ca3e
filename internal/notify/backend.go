package notify

import "time"

// Backend is implemented by every notification transport.
type Backend interface {
	// Name identifies the transport in logs and status output.
	Name() string
	// Send delivers the request and returns the id to use with
	// CloseNotification or Request.ReplaceID.
	Send(req Request) (uint32, error)
	// CloseNotification dismisses a notification previously returned by Send.
	CloseNotification(id uint32) error
	// Capabilities returns a comma separated capability list, or "" when
	// the transport cannot report one.
	Capabilities() string
	// IsAvailable reports whether initialization succeeded.
	IsAvailable() bool
	// Close releases the connection or runtime state held by the backend.
	Close() error
}

// ActionWaiter is implemented by backends that can report which action
// button the user pressed.
type ActionWaiter interface {
	// WaitAction blocks until an action of notification id is invoked and
	// returns its key. A timeout of zero waits indefinitely.
	WaitAction(id uint32, timeout time.Duration) (string, error)
}
