package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Defaults fill in request fields the caller left empty.
type Defaults struct {
	AppName  string
	Icon     Icon
	Category string
	Timeout  *time.Duration
}

// Notifier sends requests through a Backend after applying defaults and
// logs the outcome of every call.
type Notifier struct {
	backend  Backend
	defaults Defaults
	log      zerolog.Logger
}

// New creates a Notifier for the provided backend.
func New(b Backend, d Defaults, log zerolog.Logger) *Notifier {
	return &Notifier{backend: b, defaults: d, log: log}
}

// Backend returns the backend selected for this process.
func (n *Notifier) Backend() Backend {
	return n.backend
}

// Send delivers req and returns the backend id.
func (n *Notifier) Send(req Request) (uint32, error) {
	req = n.apply(req)
	id, err := n.backend.Send(req)
	if err != nil {
		n.log.Error().Err(err).
			Str("backend", n.backend.Name()).
			Str("urgency", req.Urgency.String()).
			Msg("notification not delivered")
		return 0, err
	}
	n.log.Debug().
		Str("backend", n.backend.Name()).
		Uint32("id", id).
		Str("title", req.Title).
		Int("actions", len(req.Actions)).
		Msg("notification sent")
	return id, nil
}

// Close dismisses notification id.
func (n *Notifier) Close(id uint32) error {
	if err := n.backend.CloseNotification(id); err != nil {
		n.log.Warn().Err(err).Uint32("id", id).Msg("close notification")
		return err
	}
	return nil
}

// Capabilities returns the backend capability list.
func (n *Notifier) Capabilities() string {
	return n.backend.Capabilities()
}

// WaitAction waits for an action on id if the backend supports it.
func (n *Notifier) WaitAction(id uint32, timeout time.Duration) (string, error) {
	w, ok := n.backend.(ActionWaiter)
	if !ok {
		return "", fmt.Errorf("%s: waiting for actions: %w", n.backend.Name(), ErrUnsupported)
	}
	key, err := w.WaitAction(id, timeout)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			n.log.Debug().Uint32("id", id).Dur("timeout", timeout).Msg("no action invoked")
		}
		return "", err
	}
	n.log.Debug().Uint32("id", id).Str("action", key).Msg("action invoked")
	return key, nil
}

func (n *Notifier) apply(req Request) Request {
	if req.AppName == "" {
		req.AppName = n.defaults.AppName
	}
	if req.Icon.Kind == IconNone {
		req.Icon = n.defaults.Icon
	}
	if req.Category == "" {
		req.Category = n.defaults.Category
	}
	if req.Timeout == nil && n.defaults.Timeout != nil {
		d := *n.defaults.Timeout
		req.Timeout = &d
	}
	return req
}
