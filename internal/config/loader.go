package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	configRelPath = "nativenotify/config.toml"
	localName     = ".nativenotify.toml"
	envPrefix     = "NATIVENOTIFY_"
)

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // Set from -config or at compile time
	Env          bool   // Apply NATIVENOTIFY_* variables over the file
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
		Env:          true,
	}
}

// Load reads the config file if one exists, applies environment overrides
// and validates the result.
func (l *Loader) Load() (*Config, error) {
	k := koanf.New(".")
	if path := l.GetConfigPath(); path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if l.Env {
		if err := k.Load(env.ProviderWithValue(envPrefix, ".", envKey), nil); err != nil {
			return nil, fmt.Errorf("load environment: %w", err)
		}
	}
	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads TOML configuration from r on top of the defaults.
func Parse(r io.Reader) (*Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(b), toml.Parser()); err != nil {
		return nil, err
	}
	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	cfg := New()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.Icon = expandPath(cfg.Icon)
	return cfg, nil
}

// envKeys maps NATIVENOTIFY_* suffixes to configuration keys.
var envKeys = map[string]string{
	"APP_NAME":    "app_name",
	"BACKEND":     "backend",
	"URGENCY":     "urgency",
	"TIMEOUT":     "timeout",
	"ICON":        "icon",
	"CATEGORY":    "category",
	"LOG_LEVEL":   "log.level",
	"LOG_PRETTY":  "log.pretty",
	"BUS_ADDRESS": "linux.bus_address",
	"APP_ID":      "windows.app_id",
	"INTERPRETER": "windows.interpreter",
}

// envKey translates one environment variable for the env provider. Empty
// and unknown variables are dropped.
func envKey(name, value string) (string, interface{}) {
	key, ok := envKeys[strings.TrimPrefix(name, envPrefix)]
	if !ok || value == "" {
		return "", nil
	}
	if key == "log.pretty" {
		switch strings.ToLower(value) {
		case "1", "true", "yes":
			return key, true
		case "0", "false", "no":
			return key, false
		}
		return "", nil
	}
	return key, value
}

// GetConfigPath returns the path to the configuration file, or empty string if not found.
func (l *Loader) GetConfigPath() string {
	// 1. Variable override path
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}

	// 2. Local run directory (dev mode)
	if l.Version == "dev" {
		wd, _ := os.Getwd()
		localPath := filepath.Join(wd, localName)
		if _, err := os.Stat(localPath); err == nil {
			return localPath
		}
	}

	// 3. XDG config directories
	if path, err := xdg.SearchConfigFile(configRelPath); err == nil {
		return path
	}
	return ""
}

// SavePath returns where Save writes when no override is set.
func (l *Loader) SavePath() (string, error) {
	if l.OverridePath != "" {
		return l.OverridePath, nil
	}
	return xdg.ConfigFile(configRelPath)
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(cfg.String()), 0o644)
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
