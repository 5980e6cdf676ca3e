package notify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Terminal writes notifications to a terminal stream. It is the fallback
// when no native transport could be initialized.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
	ids Counter

	app      lipgloss.Style
	title    lipgloss.Style
	critical lipgloss.Style
	muted    lipgloss.Style
}

// NewTerminal returns a Terminal writing to out, or to stderr when out is nil.
func NewTerminal(out io.Writer) *Terminal {
	if out == nil {
		out = os.Stderr
	}
	r := lipgloss.NewRenderer(out)
	return &Terminal{
		out:      out,
		app:      r.NewStyle().Faint(true),
		title:    r.NewStyle().Bold(true),
		critical: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		muted:    r.NewStyle().Faint(true).Italic(true),
	}
}

func (t *Terminal) Name() string { return "terminal" }

// Send prints the request and returns a process-local id.
func (t *Terminal) Send(req Request) (uint32, error) {
	id := t.ids.Next()
	if req.ReplaceID != 0 {
		id = req.ReplaceID
	}

	title := t.title.Render(req.Title)
	if req.Urgency == UrgencyCritical {
		title = t.critical.Render(req.Title)
	}
	var sb strings.Builder
	if req.AppName != "" {
		sb.WriteString(t.app.Render("[" + req.AppName + "]"))
		sb.WriteString(" ")
	}
	sb.WriteString(title)
	if req.Body != "" {
		sb.WriteString(": ")
		sb.WriteString(req.Body)
	}
	if len(req.Actions) > 0 {
		labels := make([]string, 0, len(req.Actions))
		for _, a := range req.Actions {
			labels = append(labels, a.Label)
		}
		sb.WriteString(" ")
		sb.WriteString(t.muted.Render("(" + strings.Join(labels, " | ") + ")"))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintln(t.out, sb.String()); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return id, nil
}

// CloseNotification is a no-op: printed lines cannot be retracted.
func (t *Terminal) CloseNotification(uint32) error { return nil }

func (t *Terminal) Capabilities() string { return "body" }

func (t *Terminal) IsAvailable() bool { return true }

func (t *Terminal) Close() error { return nil }
