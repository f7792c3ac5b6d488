// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/toastui/internal/model"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "240ms", "3.5s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Bare integers are milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '240ms', '3.5s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// MarshalYAML renders the duration as a string for yaml output.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the configuration for toastui.
// Loaded from ~/.config/toastui/toastui.toml
type Config struct {
	Toast    ToastConfig    `toml:"toast" yaml:"toast"`
	Display  DisplayConfig  `toml:"display" yaml:"display"`
	Theme    ThemeConfig    `toml:"theme" yaml:"theme"`
	DBus     DBusConfig     `toml:"dbus" yaml:"dbus"`
	Internal InternalConfig `toml:"internal" yaml:"internal"`
}

// ToastConfig controls the notification manager.
type ToastConfig struct {
	Capacity        int      `toml:"capacity" yaml:"capacity"`                 // Maximum simultaneous toasts
	DefaultDuration Duration `toml:"default_duration" yaml:"default_duration"` // Used when a request has none
	EnterDuration   Duration `toml:"enter_duration" yaml:"enter_duration"`     // Entrance animation length
	ExitDuration    Duration `toml:"exit_duration" yaml:"exit_duration"`       // Exit animation length
}

// DisplayConfig contains terminal rendering settings.
type DisplayConfig struct {
	Position     string `toml:"position" yaml:"position"` // "top" or "bottom"
	Width        int    `toml:"width" yaml:"width"`       // Toast width in cells
	Gap          int    `toml:"gap" yaml:"gap"`           // Blank lines between toasts
	ShowProgress bool   `toml:"show_progress" yaml:"show_progress"`
	ShowAge      bool   `toml:"show_age" yaml:"show_age"`
}

// KindStyle holds the colors and icon for one toast kind.
type KindStyle struct {
	Foreground string `toml:"foreground" yaml:"foreground"`
	Background string `toml:"background" yaml:"background"`
	Border     string `toml:"border" yaml:"border"`
	Icon       string `toml:"icon" yaml:"icon"`
}

// ThemeConfig holds one style per toast kind.
type ThemeConfig struct {
	Success KindStyle `toml:"success" yaml:"success"`
	Error   KindStyle `toml:"error" yaml:"error"`
	Warning KindStyle `toml:"warning" yaml:"warning"`
	Info    KindStyle `toml:"info" yaml:"info"`
}

// DBusConfig controls the org.freedesktop.Notifications front end.
type DBusConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	AppName string `toml:"app_name" yaml:"app_name"`
}

// InternalConfig controls toasts raised by toastui about itself.
type InternalConfig struct {
	NotifyReload bool `toml:"notify_reload" yaml:"notify_reload"`
}

// Position represents where the toast stack is drawn.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{PositionTop, PositionBottom}
}

// Validation errors.
var (
	ErrInvalidCapacity = errors.New("capacity must be between 1 and 20")
	ErrInvalidDuration = errors.New("default_duration must be positive")
	ErrNegativeAnim    = errors.New("animation durations cannot be negative")
	ErrInvalidPosition = errors.New("position must be top or bottom")
	ErrInvalidWidth    = errors.New("width must be between 20 and 200")
)

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Toast: ToastConfig{
			Capacity:        3,
			DefaultDuration: Duration(model.DefaultDuration),
			EnterDuration:   Duration(240 * time.Millisecond),
			ExitDuration:    Duration(280 * time.Millisecond),
		},
		Display: DisplayConfig{
			Position:     string(PositionTop),
			Width:        48,
			Gap:          0,
			ShowProgress: true,
			ShowAge:      false,
		},
		Theme: ThemeConfig{
			Success: KindStyle{Foreground: "#00C853", Background: "#0D2B1F", Border: "#00C853", Icon: "✓"},
			Error:   KindStyle{Foreground: "#FF3D3D", Background: "#2B0D0D", Border: "#FF3D3D", Icon: "✕"},
			Warning: KindStyle{Foreground: "#FFB300", Background: "#2B1E00", Border: "#FFB300", Icon: "!"},
			Info:    KindStyle{Foreground: "#2196F3", Background: "#0D1A2B", Border: "#2196F3", Icon: "i"},
		},
		DBus: DBusConfig{
			Enabled: false,
			AppName: "toastui",
		},
		Internal: InternalConfig{
			NotifyReload: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "toastui", "toastui.toml")
}

// LoadConfig loads configuration from path, or the default path if empty.
// Returns the default config if the file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Overlay file contents on the defaults
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, or the default path if empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Toast.Capacity < 1 || c.Toast.Capacity > 20 {
		return fmt.Errorf("%w, got %d", ErrInvalidCapacity, c.Toast.Capacity)
	}
	if c.Toast.DefaultDuration <= 0 {
		return ErrInvalidDuration
	}
	if c.Toast.EnterDuration < 0 || c.Toast.ExitDuration < 0 {
		return ErrNegativeAnim
	}

	validPos := false
	for _, p := range ValidPositions() {
		if c.Display.Position == string(p) {
			validPos = true
			break
		}
	}
	if !validPos {
		return fmt.Errorf("%w, got %q", ErrInvalidPosition, c.Display.Position)
	}

	if c.Display.Width < 20 || c.Display.Width > 200 {
		return fmt.Errorf("%w, got %d", ErrInvalidWidth, c.Display.Width)
	}

	return nil
}

// StyleFor returns the theme entry for kind. Unknown kinds use the info style.
func (c *Config) StyleFor(kind model.Kind) KindStyle {
	switch kind {
	case model.KindSuccess:
		return c.Theme.Success
	case model.KindError:
		return c.Theme.Error
	case model.KindWarning:
		return c.Theme.Warning
	default:
		return c.Theme.Info
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
