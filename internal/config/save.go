package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/realnamesareboring/KQLified/internal/atomicfile"
)

// fileConfig is the on-disk shape. Empty strings are dropped so a saved file
// only lists settings the learner changed.
type fileConfig struct {
	UI     map[string]string `toml:"ui,omitempty"`
	Engine fileEngine        `toml:"engine"`
	Log    map[string]string `toml:"log,omitempty"`
}

type fileEngine struct {
	Strict  bool `toml:"strict"`
	MaxRows int  `toml:"max_rows,omitempty"`
}

func (c *Config) toFile() fileConfig {
	return fileConfig{
		UI: compact(map[string]string{
			"accent":     c.UI.Accent,
			"code_theme": c.UI.CodeTheme,
		}),
		Engine: fileEngine{Strict: c.Engine.Strict, MaxRows: c.Engine.MaxRows},
		Log:    compact(map[string]string{"level": c.Log.Level}),
	}
}

func compact(values map[string]string) map[string]string {
	for k, v := range values {
		if v = strings.TrimSpace(v); v == "" {
			delete(values, k)
		} else {
			values[k] = v
		}
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

// SaveTo validates cfg and replaces the file at path atomically. Comments in
// an existing file are lost.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is required")
	}
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg.toFile()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
