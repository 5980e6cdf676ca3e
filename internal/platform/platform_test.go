package platform

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/nativenotify/internal/notify"
)

func TestOpenTerminal(t *testing.T) {
	var out bytes.Buffer
	b := Open(Options{Backend: "Terminal", Log: zerolog.Nop(), Out: &out})
	require.True(t, b.IsAvailable())
	assert.Equal(t, "terminal", b.Name())

	id, err := b.Send(notify.Request{AppName: "app", Title: "Hello", Body: "world"})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)
	assert.Contains(t, out.String(), "Hello")
	assert.Contains(t, out.String(), "world")
}

func TestFailedWrapsBothErrors(t *testing.T) {
	err := unavailable("test")
	assert.ErrorIs(t, err, notify.ErrNotificationFailed)
	assert.ErrorIs(t, err, notify.ErrUnavailable)
	assert.Contains(t, err.Error(), "test")
}

func TestParseOSVersion(t *testing.T) {
	tests := []struct {
		in           string
		major, minor int
		ok           bool
	}{
		{"Version 14.2.1 (Build 23C71)", 14, 2, true},
		{"Version 10.13.6 (Build 17G66)", 10, 13, true},
		{"Version 11 (Build 20A1)", 11, 0, true},
		{"", 0, 0, false},
		{"Build only", 0, 0, false},
	}
	for _, tt := range tests {
		major, minor, ok := parseOSVersion(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.major, major, tt.in)
		assert.Equal(t, tt.minor, minor, tt.in)
	}
	assert.False(t, supportsUserNotifications("Version 10.13.6 (Build 17G66)"))
	assert.True(t, supportsUserNotifications("Version 10.14 (Build 18A391)"))
	assert.True(t, supportsUserNotifications("Version 13.0 (Build 22A380)"))
	assert.False(t, supportsUserNotifications("garbage"))
}
