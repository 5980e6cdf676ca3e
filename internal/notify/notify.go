// Package notify defines the notification request model and the Backend
// contract implemented by every native transport.
package notify

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"
)

// Urgency is the notification priority, numbered as on the freedesktop bus.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// String returns the lowercase name used on the command line and in config.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	}
	return fmt.Sprintf("urgency(%d)", byte(u))
}

// ParseUrgency converts low, normal or critical into an Urgency.
func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return UrgencyLow, nil
	case "", "normal":
		return UrgencyNormal, nil
	case "critical":
		return UrgencyCritical, nil
	}
	return UrgencyNormal, fmt.Errorf("unknown urgency %q", s)
}

// IconKind tells a transport how to interpret Icon.Value.
type IconKind int

const (
	IconNone IconKind = iota
	// IconSymbol is a themed icon name such as "dialog-information".
	IconSymbol
	IconFile
	IconURL
)

// Icon references the image shown next to a notification.
type Icon struct {
	Kind  IconKind
	Value string
}

// ParseIcon classifies a user supplied icon reference.
func ParseIcon(s string) Icon {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Icon{}
	case strings.Contains(s, "://"):
		return Icon{Kind: IconURL, Value: s}
	case strings.ContainsAny(s, `/\`) || strings.HasPrefix(s, "~") || strings.HasPrefix(s, "."):
		return Icon{Kind: IconFile, Value: s}
	}
	return Icon{Kind: IconSymbol, Value: s}
}

// Action is a button offered on the notification.
type Action struct {
	ID    string
	Label string
}

// Request is a validated notification handed to a Backend. Transports treat
// it as read-only.
type Request struct {
	AppName  string
	Title    string
	Body     string
	Urgency  Urgency
	Category string
	Icon     Icon
	// Timeout is nil for the service default; zero keeps the notification
	// on screen until dismissed.
	Timeout   *time.Duration
	ReplaceID uint32
	Actions   []Action
}

// ExpireTimeout returns the freedesktop expire_timeout encoding of Timeout:
// -1 for the service default, 0 for persistent, milliseconds otherwise.
func (r Request) ExpireTimeout() int32 {
	if r.Timeout == nil {
		return -1
	}
	ms := r.Timeout.Milliseconds()
	switch {
	case *r.Timeout <= 0:
		return 0
	case ms == 0:
		// Below one millisecond still expires; zero would mean persistent.
		return 1
	case ms > math.MaxInt32:
		return math.MaxInt32
	}
	return int32(ms)
}

// Counter issues process-local notification ids starting at 1.
type Counter struct {
	n atomic.Uint32
}

// Next returns the next id. Zero is skipped on wrap-around since it means
// "no notification" to every transport.
func (c *Counter) Next() uint32 {
	for {
		if id := c.n.Add(1); id != 0 {
			return id
		}
	}
}
