package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/nativenotify/internal/logging"
	"github.com/example/nativenotify/internal/notify"
	"github.com/example/nativenotify/internal/platform"
)

// Log holds logging settings.
type Log struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Linux holds session bus settings.
type Linux struct {
	BusAddress string `koanf:"bus_address"`
}

// Windows holds toast identity settings.
type Windows struct {
	AppID        string `koanf:"app_id"`
	ShortcutName string `koanf:"shortcut_name"`
	Interpreter  string `koanf:"interpreter"`
}

// Darwin holds UserNotifications settings.
type Darwin struct {
	CallbackWait time.Duration `koanf:"callback_wait"`
}

// Config holds the application configuration.
type Config struct {
	AppName  string `koanf:"app_name"`
	Backend  string `koanf:"backend"`
	Urgency  string `koanf:"urgency"`
	Timeout  string `koanf:"timeout"` // empty means the server default
	Icon     string `koanf:"icon"`
	Category string `koanf:"category"`

	Log     Log     `koanf:"log"`
	Linux   Linux   `koanf:"linux"`
	Windows Windows `koanf:"windows"`
	Darwin  Darwin  `koanf:"darwin"`
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		AppName: "nativenotify",
		Backend: platform.BackendAuto,
		Urgency: "normal",
		Log:     Log{Level: "warn"},
		Windows: Windows{
			AppID:        platform.DefaultAppID,
			ShortcutName: platform.DefaultShortcutName,
			Interpreter:  platform.DefaultInterpreter,
		},
		Darwin: Darwin{CallbackWait: platform.DefaultCallbackWait},
	}
}

// Validate checks the values that are parsed lazily.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case "", platform.BackendAuto, platform.BackendNative, platform.BackendTerminal:
	default:
		return fmt.Errorf("backend: unknown value %q (want auto, native or terminal)", c.Backend)
	}
	if _, err := notify.ParseUrgency(c.Urgency); err != nil {
		return fmt.Errorf("urgency: %w", err)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Darwin.CallbackWait < 0 {
		return fmt.Errorf("darwin.callback_wait: must not be negative")
	}
	return nil
}

// TimeoutDuration parses Timeout. Nil means the server default.
func (c *Config) TimeoutDuration() (*time.Duration, error) {
	if strings.TrimSpace(c.Timeout) == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}
	if d < 0 {
		return nil, fmt.Errorf("timeout: must not be negative")
	}
	return &d, nil
}

// String implements fmt.Stringer and returns the configuration as TOML.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "app_name = %s\n", quote(c.AppName))
	fmt.Fprintf(&sb, "backend = %s\n", quote(c.Backend))
	fmt.Fprintf(&sb, "urgency = %s\n", quote(c.Urgency))
	if c.Timeout != "" {
		fmt.Fprintf(&sb, "timeout = %s\n", quote(c.Timeout))
	}
	if c.Icon != "" {
		fmt.Fprintf(&sb, "icon = %s\n", quote(c.Icon))
	}
	if c.Category != "" {
		fmt.Fprintf(&sb, "category = %s\n", quote(c.Category))
	}
	sb.WriteString("\n")

	sb.WriteString("[log]\n")
	fmt.Fprintf(&sb, "level = %s\n", quote(c.Log.Level))
	fmt.Fprintf(&sb, "pretty = %v\n", c.Log.Pretty)
	sb.WriteString("\n")

	sb.WriteString("[linux]\n")
	if c.Linux.BusAddress != "" {
		fmt.Fprintf(&sb, "bus_address = %s\n", quote(c.Linux.BusAddress))
	}
	sb.WriteString("\n")

	sb.WriteString("[windows]\n")
	fmt.Fprintf(&sb, "app_id = %s\n", quote(c.Windows.AppID))
	fmt.Fprintf(&sb, "shortcut_name = %s\n", quote(c.Windows.ShortcutName))
	fmt.Fprintf(&sb, "interpreter = %s\n", quote(c.Windows.Interpreter))
	sb.WriteString("\n")

	sb.WriteString("[darwin]\n")
	fmt.Fprintf(&sb, "callback_wait = %s\n", quote(c.Darwin.CallbackWait.String()))

	return sb.String()
}

// quote renders s as a TOML basic string.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, `\u%04X`, r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
