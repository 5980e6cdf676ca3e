package notify

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrgencyValues(t *testing.T) {
	// Values are sent on the wire as the urgency hint byte.
	assert.Equal(t, Urgency(0), UrgencyLow)
	assert.Equal(t, Urgency(1), UrgencyNormal)
	assert.Equal(t, Urgency(2), UrgencyCritical)
}

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		in      string
		want    Urgency
		wantErr bool
	}{
		{"low", UrgencyLow, false},
		{"Normal", UrgencyNormal, false},
		{"", UrgencyNormal, false},
		{" critical ", UrgencyCritical, false},
		{"urgent", UrgencyNormal, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseUrgency(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseIcon(t *testing.T) {
	tests := []struct {
		in   string
		want Icon
	}{
		{"", Icon{}},
		{"dialog-warning", Icon{Kind: IconSymbol, Value: "dialog-warning"}},
		{"/usr/share/pixmaps/app.png", Icon{Kind: IconFile, Value: "/usr/share/pixmaps/app.png"}},
		{"./icon.png", Icon{Kind: IconFile, Value: "./icon.png"}},
		{`C:\icons\app.png`, Icon{Kind: IconFile, Value: `C:\icons\app.png`}},
		{"https://example.com/a.png", Icon{Kind: IconURL, Value: "https://example.com/a.png"}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseIcon(tc.in), "ParseIcon(%q)", tc.in)
	}
}

func TestExpireTimeout(t *testing.T) {
	dur := func(d time.Duration) *time.Duration { return &d }

	assert.Equal(t, int32(-1), Request{}.ExpireTimeout(), "absent timeout uses server default")
	assert.Equal(t, int32(0), Request{Timeout: dur(0)}.ExpireTimeout(), "zero is persistent")
	assert.Equal(t, int32(5000), Request{Timeout: dur(5 * time.Second)}.ExpireTimeout())
	assert.Equal(t, int32(1), Request{Timeout: dur(time.Millisecond)}.ExpireTimeout())
	assert.Equal(t, int32(1), Request{Timeout: dur(500 * time.Microsecond)}.ExpireTimeout(), "sub-millisecond still expires")
	assert.Equal(t, int32(1), Request{Timeout: dur(time.Nanosecond)}.ExpireTimeout())
	assert.Equal(t, int32(2147483647), Request{Timeout: dur(1000 * time.Hour)}.ExpireTimeout())
}

func TestCounterMonotonic(t *testing.T) {
	var c Counter
	prev := c.Next()
	assert.Equal(t, uint32(1), prev)
	for i := 0; i < 100; i++ {
		id := c.Next()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestCounterSkipsZero(t *testing.T) {
	var c Counter
	c.n.Store(^uint32(0) - 1)
	assert.Equal(t, ^uint32(0), c.Next())
	assert.Equal(t, uint32(1), c.Next())
}

func TestTerminalSend(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	id, err := term.Send(Request{
		AppName: "demo",
		Title:   "Build finished",
		Body:    "all green",
		Actions: []Action{{ID: "open", Label: "Open"}, {ID: "later", Label: "Later"}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)

	out := buf.String()
	assert.Contains(t, out, "[demo]")
	assert.Contains(t, out, "Build finished")
	assert.Contains(t, out, "all green")
	assert.Contains(t, out, "Open | Later")
	assert.True(t, strings.HasSuffix(out, "\n"))

	id, err = term.Send(Request{Title: "again", ReplaceID: 7})
	require.NoError(t, err)
	assert.Equal(t, uint32(7), id)

	assert.True(t, term.IsAvailable())
	assert.Equal(t, "body", term.Capabilities())
	assert.NoError(t, term.CloseNotification(id))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestTerminalWriteFailure(t *testing.T) {
	term := NewTerminal(failingWriter{})
	_, err := term.Send(Request{Title: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotificationFailed)
}

type recordingBackend struct {
	Terminal
	got []Request
}

func (r *recordingBackend) Send(req Request) (uint32, error) {
	r.got = append(r.got, req)
	return uint32(len(r.got)), nil
}

func TestNotifierAppliesDefaults(t *testing.T) {
	timeout := 3 * time.Second
	b := &recordingBackend{}
	n := New(b, Defaults{
		AppName:  "nativenotify",
		Icon:     Icon{Kind: IconSymbol, Value: "bell"},
		Category: "im",
		Timeout:  &timeout,
	}, zerolog.Nop())

	_, err := n.Send(Request{Title: "hi"})
	require.NoError(t, err)
	_, err = n.Send(Request{Title: "hi", AppName: "other", Category: "email", Icon: ParseIcon("/tmp/x.png")})
	require.NoError(t, err)

	require.Len(t, b.got, 2)
	first := b.got[0]
	assert.Equal(t, "nativenotify", first.AppName)
	assert.Equal(t, "bell", first.Icon.Value)
	assert.Equal(t, "im", first.Category)
	require.NotNil(t, first.Timeout)
	assert.Equal(t, timeout, *first.Timeout)

	second := b.got[1]
	assert.Equal(t, "other", second.AppName)
	assert.Equal(t, "email", second.Category)
	assert.Equal(t, IconFile, second.Icon.Kind)
}

func TestNotifierWaitActionUnsupported(t *testing.T) {
	n := New(NewTerminal(&bytes.Buffer{}), Defaults{}, zerolog.Nop())
	_, err := n.WaitAction(1, time.Second)
	assert.ErrorIs(t, err, ErrUnsupported)
}
