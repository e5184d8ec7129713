package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFrom(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `[ui]
accent = "39"
code_theme = "dracula"

[engine]
strict = true

[log]
level = "debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.UI.Accent != "39" {
		t.Errorf("expected ui.accent '39', got %q", cfg.UI.Accent)
	}
	if cfg.UI.CodeTheme != "dracula" {
		t.Errorf("expected ui.code_theme 'dracula', got %q", cfg.UI.CodeTheme)
	}
	if !cfg.Engine.Strict {
		t.Errorf("expected engine.strict true")
	}
	if cfg.Engine.MaxRows != DefaultMaxRows {
		t.Errorf("expected default max_rows %d, got %d", DefaultMaxRows, cfg.Engine.MaxRows)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadFromInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad toml", `this is not valid toml {{{{`, "failed to parse config"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"negative rows", "[engine]\nmax_rows = -1\n", "max_rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			_, err := LoadFrom(configPath)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Engine.MaxRows != DefaultMaxRows {
		t.Errorf("expected max_rows %d, got %d", DefaultMaxRows, cfg.Engine.MaxRows)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("expected warn level, got %q", cfg.Log.Level)
	}
	if cfg.Engine.Strict {
		t.Errorf("expected lenient engine by default")
	}
}

func TestSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("engine.strict", "true"); err != nil {
		t.Fatalf("Set(engine.strict) error = %v", err)
	}
	if err := cfg.Set("ENGINE.max_rows", " 50 "); err != nil {
		t.Fatalf("Set(engine.max_rows) error = %v", err)
	}
	if err := cfg.Set("ui.accent", "#ff8800"); err != nil {
		t.Fatalf("Set(ui.accent) error = %v", err)
	}
	if !cfg.Engine.Strict || cfg.Engine.MaxRows != 50 || cfg.UI.Accent != "#ff8800" {
		t.Fatalf("unexpected config after Set: %+v", cfg)
	}

	for _, bad := range [][2]string{
		{"engine.strict", "maybe"},
		{"engine.max_rows", "lots"},
		{"log.level", "shout"},
		{"vault", "x"},
	} {
		if err := cfg.Set(bad[0], bad[1]); err == nil {
			t.Errorf("expected Set(%q, %q) to fail", bad[0], bad[1])
		}
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil || cfg.Engine.MaxRows != DefaultMaxRows {
		t.Errorf("expected default config, got %+v", cfg)
	}
}

func TestXDGPath(t *testing.T) {
	path, err := XDGPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(path) != "config.toml" || filepath.Base(filepath.Dir(path)) != "kqlified" {
		t.Errorf("expected .../kqlified/config.toml, got %s", path)
	}
}

func TestCreateDefaultAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	got, created, err := CreateDefaultAt(path)
	if err != nil {
		t.Fatalf("CreateDefaultAt() error = %v", err)
	}
	if got != path || !created {
		t.Fatalf("expected %s to be created, got %s created=%v", path, got, created)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("default config does not load: %v", err)
	}
	if cfg.Engine.MaxRows != DefaultMaxRows || cfg.Log.Level != "warn" {
		t.Errorf("unexpected default config: %+v", cfg)
	}

	_, created, err = CreateDefaultAt(path)
	if err != nil {
		t.Fatalf("second CreateDefaultAt() error = %v", err)
	}
	if created {
		t.Errorf("expected existing file to be left alone")
	}
}

func TestGetMirrorsSet(t *testing.T) {
	cfg := Default()
	for key, value := range map[string]string{
		"ui.code_theme":   "nord",
		"engine.strict":   "true",
		"engine.max_rows": "75",
		"log.level":       "debug",
	} {
		if err := cfg.Set(key, value); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
		got, err := cfg.Get(key)
		if err != nil {
			t.Fatalf("Get(%s): %v", key, err)
		}
		if got != value {
			t.Errorf("Get(%s) = %q, want %q", key, got, value)
		}
	}
	if _, err := cfg.Get("engine.turbo"); err == nil {
		t.Error("expected error for unknown key")
	}
}
