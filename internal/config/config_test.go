package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tally.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != "" {
		t.Fatalf("no config file exists, got %q", cfg.File)
	}
	if cfg.Storage.Driver != DriverSQLite {
		t.Fatalf("driver = %q", cfg.Storage.Driver)
	}
	if want := filepath.Join(home, ".tally", "tally.db"); cfg.Storage.SQLitePath != want {
		t.Fatalf("sqlite_path = %q, want %q", cfg.Storage.SQLitePath, want)
	}
	if cfg.Timer.PausedWindow != 24*time.Hour {
		t.Fatalf("paused_window = %s", cfg.Timer.PausedWindow)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" || cfg.Log.SQL {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if cfg.Storage.MySQL.Port != 3306 || cfg.Storage.MySQL.Database != "tally" {
		t.Fatalf("mysql = %+v", cfg.Storage.MySQL)
	}
}

func TestLoadDefaultLocation(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "xdg", "tally")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tally.yml"), []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("level = %q, want debug", cfg.Log.Level)
	}
	if !strings.HasSuffix(cfg.File, "tally.yml") {
		t.Fatalf("File = %q", cfg.File)
	}
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
storage:
  driver: mysql
  mysql:
    host: db.internal
    port: 3307
    user: tally
    database: billing
timer:
  paused_window: 8h
log:
  format: json
  sql: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != DriverMySQL || cfg.Storage.MySQL.Host != "db.internal" || cfg.Storage.MySQL.Port != 3307 {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.MySQL.Database != "billing" || cfg.Storage.MySQL.User != "tally" {
		t.Fatalf("mysql = %+v", cfg.Storage.MySQL)
	}
	if cfg.Timer.PausedWindow != 8*time.Hour {
		t.Fatalf("paused_window = %s", cfg.Timer.PausedWindow)
	}
	if cfg.Log.Format != "json" || !cfg.Log.SQL {
		t.Fatalf("log = %+v", cfg.Log)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TALLY_STORAGE_DRIVER", "memory")
	t.Setenv("TALLY_TIMER_PAUSED_WINDOW", "90m")
	t.Setenv("TALLY_LOG_LEVEL", "info")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Fatalf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.Timer.PausedWindow != 90*time.Minute {
		t.Fatalf("paused_window = %s", cfg.Timer.PausedWindow)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("level = %q", cfg.Log.Level)
	}
}

func TestLoadExpandsHome(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, "storage:\n  sqlite_path: ~/work/time.db\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "work", "time.db"); cfg.Storage.SQLitePath != want {
		t.Fatalf("sqlite_path = %q, want %q", cfg.Storage.SQLitePath, want)
	}
}

func TestLoadErrors(t *testing.T) {
	isolate(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("an explicit missing file should be an error")
	}

	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "storage:\n  driver: postgres\n"},
		{"zero window", "timer:\n  paused_window: 0s\n"},
		{"negative window", "timer:\n  paused_window: -1h\n"},
		{"mysql without database", "storage:\n  driver: mysql\n  mysql:\n    database: \"\"\n"},
		{"bad log format", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}
