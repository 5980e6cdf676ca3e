//go:build !linux && !darwin && !windows

package platform

import (
	"github.com/example/nativenotify/internal/notify"
)

// stubBackend is never available; Open falls back to the terminal.
type stubBackend struct{}

func newNative(Options) notify.Backend { return stubBackend{} }

func (stubBackend) Name() string                       { return "unsupported" }
func (stubBackend) Send(notify.Request) (uint32, error) { return 0, unavailable("unsupported") }
func (stubBackend) CloseNotification(uint32) error      { return unavailable("unsupported") }
func (stubBackend) Capabilities() string                { return "" }
func (stubBackend) IsAvailable() bool                   { return false }
func (stubBackend) Close() error                        { return nil }
