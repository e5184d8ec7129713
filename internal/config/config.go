// Package config handles kqlified configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/realnamesareboring/KQLified/internal/atomicfile"
)

const (
	// DefaultMaxRows is how many result rows terminal tables show.
	DefaultMaxRows = 200
	// DefaultLogLevel is the slog level when neither config nor flags set one.
	DefaultLogLevel = "warn"

	appDir   = "kqlified"
	fileName = "config.toml"
)

// Config represents the kqlified configuration.
type Config struct {
	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`

	// Engine controls query evaluation.
	Engine EngineConfig `toml:"engine"`

	// Log controls diagnostic logging on stderr.
	Log LogConfig `toml:"log"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered code blocks.
	// Example values: "monokai", "dracula", "github", "nord".
	CodeTheme string `toml:"code_theme"`
}

// EngineConfig controls query evaluation.
type EngineConfig struct {
	// Strict fails queries with unsupported clauses instead of warning.
	Strict bool `toml:"strict"`

	// MaxRows caps rendered result rows. Zero means DefaultMaxRows.
	MaxRows int `toml:"max_rows"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Engine.MaxRows == 0 {
		c.Engine.MaxRows = DefaultMaxRows
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Engine.MaxRows < 0 {
		return fmt.Errorf("engine.max_rows must not be negative, got %d", c.Engine.MaxRows)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level, or warn if it does not parse.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Keys lists the settings Set accepts.
func Keys() []string {
	return []string{"ui.accent", "ui.code_theme", "engine.strict", "engine.max_rows", "log.level"}
}

// Get returns one setting by its dotted TOML key, formatted the way Set
// accepts it.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "ui.accent":
		return c.UI.Accent, nil
	case "ui.code_theme":
		return c.UI.CodeTheme, nil
	case "engine.strict":
		return strconv.FormatBool(c.Engine.Strict), nil
	case "engine.max_rows":
		return strconv.Itoa(c.Engine.MaxRows), nil
	case "log.level":
		return c.Log.Level, nil
	}
	return "", fmt.Errorf("unknown config key %q (expected one of %s)", key, strings.Join(Keys(), ", "))
}

// Set assigns one setting by its dotted TOML key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "ui.accent":
		c.UI.Accent = value
	case "ui.code_theme":
		c.UI.CodeTheme = value
	case "engine.strict":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("engine.strict: expected true or false, got %q", value)
		}
		c.Engine.Strict = b
	case "engine.max_rows":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("engine.max_rows: expected a number, got %q", value)
		}
		c.Engine.MaxRows = n
	case "log.level":
		c.Log.Level = value
	default:
		return fmt.Errorf("unknown config key %q (expected one of %s)", key, strings.Join(Keys(), ", "))
	}
	return c.Validate()
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default(), nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/kqlified/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if xdgPath, err := XDGPath(); err == nil {
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, appDir, fileName)
	}

	return filepath.Join(".", fileName)
}

// XDGPath returns the XDG-style config path (~/.config/kqlified/config.toml).
func XDGPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDir, fileName), nil
}

const defaultConfig = `# kqlified configuration

[ui]
# Accent color for headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# accent = "39"
# code_theme = "monokai"

[engine]
# Fail queries that use clauses the trainer cannot evaluate,
# instead of passing rows through with a warning.
strict = false
# Result rows shown in terminal tables.
max_rows = 200

[log]
# debug, info, warn or error. --verbose forces debug.
level = "warn"
`

// CreateDefault creates a default config file at the default path if it
// doesn't exist.
func CreateDefault() (path string, created bool, err error) {
	return CreateDefaultAt(DefaultPath())
}

// CreateDefaultAt creates a default config file at path if it doesn't exist.
func CreateDefaultAt(path string) (string, bool, error) {
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := atomicfile.WriteNew(path, []byte(defaultConfig), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}

	return path, true, nil
}
