package dbuswire

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Address is a UNIX-domain socket address of a bus.
type Address struct {
	Path     string
	Abstract bool
}

func (a Address) String() string {
	if a.Abstract {
		return "unix:abstract=" + a.Path
	}
	return "unix:path=" + a.Path
}

// ParseAddress returns the first UNIX socket entry of a D-Bus server
// address list such as "unix:path=/run/user/1000/bus,guid=...".
func ParseAddress(s string) (Address, error) {
	for _, entry := range strings.Split(s, ";") {
		transport, params, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || transport != "unix" {
			continue
		}
		kv := map[string]string{}
		for _, p := range strings.Split(params, ",") {
			k, v, ok := strings.Cut(p, "=")
			if !ok {
				continue
			}
			unescaped, err := url.PathUnescape(v)
			if err != nil {
				return Address{}, fmt.Errorf("dbus: bad address value %q: %w", v, err)
			}
			kv[k] = unescaped
		}
		switch {
		case kv["path"] != "":
			return Address{Path: kv["path"]}, nil
		case kv["abstract"] != "":
			return Address{Path: kv["abstract"], Abstract: true}, nil
		case kv["runtime"] == "yes" && xdg.RuntimeDir != "":
			return Address{Path: filepath.Join(xdg.RuntimeDir, "bus")}, nil
		}
	}
	return Address{}, fmt.Errorf("%w: no usable unix transport in %q", ErrNoBusAddress, s)
}

// SessionBusAddress resolves the session bus from DBUS_SESSION_BUS_ADDRESS,
// falling back to the per-user bus socket in the XDG runtime directory.
func SessionBusAddress() (Address, error) {
	if env := os.Getenv("DBUS_SESSION_BUS_ADDRESS"); env != "" {
		return ParseAddress(env)
	}
	if xdg.RuntimeDir != "" {
		path := filepath.Join(xdg.RuntimeDir, "bus")
		if fi, err := os.Stat(path); err == nil && fi.Mode()&os.ModeSocket != 0 {
			return Address{Path: path}, nil
		}
	}
	return Address{}, ErrNoBusAddress
}
