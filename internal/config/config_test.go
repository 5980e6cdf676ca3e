package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `
app_name = "builds"
urgency = "critical"
timeout = "8s"
category = "transfer.complete"

[log]
level = "debug"
pretty = true

[linux]
bus_address = "unix:path=/run/user/1000/bus"

[darwin]
callback_wait = "750ms"
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "builds", cfg.AppName)
	assert.Equal(t, "critical", cfg.Urgency)
	assert.Equal(t, "transfer.complete", cfg.Category)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "unix:path=/run/user/1000/bus", cfg.Linux.BusAddress)
	assert.Equal(t, 750*time.Millisecond, cfg.Darwin.CallbackWait)

	timeout, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	require.NotNil(t, timeout)
	assert.Equal(t, 8*time.Second, *timeout)

	// Untouched keys keep their defaults.
	assert.Equal(t, "auto", cfg.Backend)
	assert.Equal(t, New().Windows, cfg.Windows)
	assert.NoError(t, cfg.Validate())
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse(strings.NewReader("app_name = \"unterminated\n"))
	assert.Error(t, err)
}

func TestCircular(t *testing.T) {
	input := `app_name = "quote \" and \\ backslash"
backend = "terminal"
urgency = "low"
timeout = "0s"
icon = "dialog-information"

[log]
level = "info"

[windows]
app_id = "Example.App"
shortcut_name = "Example"
interpreter = "pwsh.exe"

[darwin]
callback_wait = "1s"
`
	// 1. Parse initial input
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	// 2. Generate string representation
	generated := cfg.String()

	// 3. Parse generated string
	cfg2, err := Parse(strings.NewReader(generated))
	require.NoError(t, err, generated)

	// 4. Compare
	assert.Equal(t, cfg, cfg2)
	assert.Equal(t, `quote " and \ backslash`, cfg2.AppName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Backend = "carrier-pigeon" }},
		{"urgency", func(c *Config) { c.Urgency = "meh" }},
		{"timeout", func(c *Config) { c.Timeout = "soon" }},
		{"negative timeout", func(c *Config) { c.Timeout = "-1s" }},
		{"log level", func(c *Config) { c.Log.Level = "chatty" }},
		{"callback wait", func(c *Config) { c.Darwin.CallbackWait = -time.Second }},
	}
	require.NoError(t, New().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTimeoutDuration(t *testing.T) {
	cfg := New()
	d, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Nil(t, d, "unset means server default")

	cfg.Timeout = "0s"
	d, err = cfg.TimeoutDuration()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Zero(t, *d)
}

func TestLoaderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	t.Setenv("NATIVENOTIFY_URGENCY", "critical")
	t.Setenv("NATIVENOTIFY_BUS_ADDRESS", "unix:abstract=/tmp/bus")
	t.Setenv("NATIVENOTIFY_LOG_PRETTY", "yes")
	t.Setenv("NATIVENOTIFY_CATEGORY", "")
	t.Setenv("NATIVENOTIFY_UNKNOWN", "ignored")

	cfg, err := NewLoader("1.0.0", path).Load()
	require.NoError(t, err)
	assert.Equal(t, "critical", cfg.Urgency)
	assert.Equal(t, "unix:abstract=/tmp/bus", cfg.Linux.BusAddress)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "nativenotify", cfg.AppName)
	assert.Empty(t, cfg.Category)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name, value string
		key         string
		want        interface{}
	}{
		{"NATIVENOTIFY_APP_ID", "Acme.Tool", "windows.app_id", "Acme.Tool"},
		{"NATIVENOTIFY_LOG_LEVEL", "debug", "log.level", "debug"},
		{"NATIVENOTIFY_LOG_PRETTY", "0", "log.pretty", false},
		{"NATIVENOTIFY_LOG_PRETTY", "maybe", "", nil},
		{"NATIVENOTIFY_ICON", "", "", nil},
		{"NATIVENOTIFY_OTHER", "x", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			key, value := envKey(tt.name, tt.value)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestLoaderOverridePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("app_name = \"from-file\"\nurgency = \"low\"\n"), 0o644))
	t.Setenv("NATIVENOTIFY_URGENCY", "critical")

	l := NewLoader("1.0.0", path)
	assert.Equal(t, path, l.GetConfigPath())

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.AppName)
	assert.Equal(t, "critical", cfg.Urgency, "environment wins over the file")
}

func TestLoaderRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("urgency = \"extreme\"\n"), 0o644))
	_, err := NewLoader("1.0.0", path).Load()
	assert.ErrorContains(t, err, "urgency")
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := New()
	cfg.Category = "im.received"
	cfg.Timeout = "3s"
	require.NoError(t, Save(cfg, path))

	l := NewLoader("1.0.0", path)
	l.Env = false
	got, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	savePath, err := l.SavePath()
	require.NoError(t, err)
	assert.Equal(t, path, savePath)
}
