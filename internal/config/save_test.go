package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.UI.CodeTheme = "nord"
	cfg.Engine.Strict = true
	cfg.Engine.MaxRows = 25
	cfg.Log.Level = "info"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}

	if loaded.UI.CodeTheme != "nord" || loaded.UI.Accent != "" {
		t.Fatalf("unexpected ui settings: %+v", loaded.UI)
	}
	if !loaded.Engine.Strict || loaded.Engine.MaxRows != 25 {
		t.Fatalf("unexpected engine settings: %+v", loaded.Engine)
	}
	if loaded.Log.Level != "info" {
		t.Fatalf("expected log.level info, got %q", loaded.Log.Level)
	}
}

func TestSaveToRequiresPath(t *testing.T) {
	if err := SaveTo("  ", Default()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSaveToOmitsEmptySections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Log.Level = "  "
	cfg.Engine.MaxRows = 10
	if err := SaveTo(path, cfg); err == nil {
		t.Fatal("expected blank log level to fail validation")
	}

	cfg.Log.Level = "debug"
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if strings.Contains(string(data), "[ui]") {
		t.Fatalf("expected no [ui] table, got:\n%s", data)
	}
	if !strings.Contains(string(data), "max_rows = 10") {
		t.Fatalf("expected max_rows in saved config, got:\n%s", data)
	}
}

func TestSaveToRejectsNegativeMaxRows(t *testing.T) {
	cfg := Default()
	cfg.Engine.MaxRows = -1
	if err := SaveTo(filepath.Join(t.TempDir(), "config.toml"), cfg); err == nil {
		t.Fatal("expected validation error")
	}
}
