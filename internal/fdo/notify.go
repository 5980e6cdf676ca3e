// Package fdo is a client for the org.freedesktop.Notifications service
// built on the dbuswire connection.
package fdo

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/example/nativenotify/internal/dbuswire"
	"github.com/example/nativenotify/internal/notify"
)

const (
	Destination = "org.freedesktop.Notifications"
	ObjectPath  = "/org/freedesktop/Notifications"
	Interface   = "org.freedesktop.Notifications"

	// NotifySignature is the argument signature of the Notify method.
	NotifySignature = "susssasa{sv}i"

	actionInvokedRule = "type='signal',interface='" + Interface + "',member='ActionInvoked'"
)

// ServerInfo is the reply of GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// Client issues notification calls over an authenticated connection.
type Client struct {
	conn    *dbuswire.Conn
	matched bool
}

// NewClient wraps a connection that has already completed Hello.
func NewClient(conn *dbuswire.Conn) *Client {
	return &Client{conn: conn}
}

// NotifyBody marshals the Notify arguments for req.
func NotifyBody(req notify.Request) []byte {
	e := dbuswire.NewEncoder()
	e.String(req.AppName)
	e.Uint32(req.ReplaceID)
	e.String(appIcon(req.Icon))
	e.String(req.Title)
	e.String(req.Body)

	actions := make([]string, 0, len(req.Actions)*2)
	for _, a := range req.Actions {
		actions = append(actions, a.ID, a.Label)
	}
	e.StringArray(actions)

	e.Array(8, func(e *dbuswire.Encoder) {
		hint(e, "urgency", "y", func(e *dbuswire.Encoder) { e.Byte(byte(req.Urgency)) })
		if req.Category != "" {
			hint(e, "category", "s", func(e *dbuswire.Encoder) { e.String(req.Category) })
		}
		if req.Icon.Kind == notify.IconFile || req.Icon.Kind == notify.IconURL {
			hint(e, "image-path", "s", func(e *dbuswire.Encoder) { e.String(req.Icon.Value) })
		}
	})
	e.Int32(req.ExpireTimeout())
	return e.Bytes()
}

// appIcon renders icon for the app_icon argument, which takes a themed
// name or a URI. Absolute paths become file URIs; the image-path hint
// still carries the plain path.
func appIcon(icon notify.Icon) string {
	if icon.Kind == notify.IconFile && filepath.IsAbs(icon.Value) {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(icon.Value)}).String()
	}
	return icon.Value
}

func hint(e *dbuswire.Encoder, key, sig string, value func(*dbuswire.Encoder)) {
	e.Struct(func(e *dbuswire.Encoder) {
		e.String(key)
		e.Variant(sig, value)
	})
}

func call(member, sig string, body []byte) *dbuswire.Message {
	return &dbuswire.Message{
		Type:        dbuswire.TypeMethodCall,
		Path:        ObjectPath,
		Interface:   Interface,
		Member:      member,
		Destination: Destination,
		Signature:   sig,
		Body:        body,
	}
}

// Notify shows req and returns the id assigned by the server.
func (c *Client) Notify(req notify.Request) (uint32, error) {
	reply, err := c.conn.Call(call("Notify", NotifySignature, NotifyBody(req)))
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	if reply.Signature != "u" {
		return 0, fmt.Errorf("notify: %w: reply signature %q", dbuswire.ErrMalformed, reply.Signature)
	}
	id, err := reply.BodyDecoder().Uint32()
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}

// CloseNotification asks the server to dismiss id. No reply is requested,
// so the call never blocks on the server.
func (c *Client) CloseNotification(id uint32) error {
	e := dbuswire.NewEncoder()
	e.Uint32(id)
	m := call("CloseNotification", "u", e.Bytes())
	m.Flags = dbuswire.FlagNoReplyExpected
	if _, err := c.conn.Send(m); err != nil {
		return fmt.Errorf("close notification %d: %w", id, err)
	}
	return nil
}

// GetCapabilities returns the optional features the server implements.
func (c *Client) GetCapabilities() ([]string, error) {
	reply, err := c.conn.Call(call("GetCapabilities", "", nil))
	if err != nil {
		return nil, fmt.Errorf("get capabilities: %w", err)
	}
	if reply.Signature != "as" {
		return nil, fmt.Errorf("get capabilities: %w: reply signature %q", dbuswire.ErrMalformed, reply.Signature)
	}
	caps, err := reply.BodyDecoder().StringArray()
	if err != nil {
		return nil, fmt.Errorf("get capabilities: %w", err)
	}
	return caps, nil
}

// GetServerInformation identifies the running notification server.
func (c *Client) GetServerInformation() (ServerInfo, error) {
	reply, err := c.conn.Call(call("GetServerInformation", "", nil))
	if err != nil {
		return ServerInfo{}, fmt.Errorf("get server information: %w", err)
	}
	if reply.Signature != "ssss" {
		return ServerInfo{}, fmt.Errorf("get server information: %w: reply signature %q", dbuswire.ErrMalformed, reply.Signature)
	}
	d := reply.BodyDecoder()
	var info ServerInfo
	for _, dst := range []*string{&info.Name, &info.Vendor, &info.Version, &info.SpecVersion} {
		if *dst, err = d.String(); err != nil {
			return ServerInfo{}, fmt.Errorf("get server information: %w", err)
		}
	}
	return info, nil
}

// WaitActionInvoked blocks until the user invokes an action on notification
// id and returns the action key. A timeout of zero waits indefinitely;
// expiry returns dbuswire.ErrTimeout.
func (c *Client) WaitActionInvoked(id uint32, timeout time.Duration) (string, error) {
	if !c.matched {
		if err := c.conn.AddMatch(actionInvokedRule); err != nil {
			return "", err
		}
		c.matched = true
	}
	var key string
	_, err := c.conn.WaitSignal(func(m *dbuswire.Message) bool {
		if m.Interface != Interface || m.Member != "ActionInvoked" || m.Signature != "us" {
			return false
		}
		d := m.BodyDecoder()
		got, err := d.Uint32()
		if err != nil || got != id {
			return false
		}
		key, err = d.String()
		return err == nil
	}, timeout)
	if err != nil {
		return "", fmt.Errorf("wait for action on %d: %w", id, err)
	}
	return key, nil
}
