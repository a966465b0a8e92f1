package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/balkashynov/tally/internal/config"
	"github.com/balkashynov/tally/internal/store/memory"
	"github.com/balkashynov/tally/internal/store/sqlstore"
)

func baseConfig(driver string) config.Config {
	return config.Config{
		Storage: config.StorageConfig{Driver: driver},
		Timer:   config.TimerConfig{PausedWindow: 2 * time.Hour},
		Log:     config.LogConfig{Level: "debug", Format: "text"},
	}
}

func TestNewMemory(t *testing.T) {
	var logs bytes.Buffer
	a, err := New(baseConfig(config.DriverMemory), &logs)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, ok := a.Store.(*memory.Store); !ok {
		t.Fatalf("store = %T, want *memory.Store", a.Store)
	}
	if a.Engine.PausedWindow() != 2*time.Hour {
		t.Fatal("paused window not passed to the engine")
	}
	if !bytes.Contains(logs.Bytes(), []byte("in-memory store")) {
		t.Fatal("memory driver should warn")
	}
}

func TestNewSQLite(t *testing.T) {
	cfg := baseConfig(config.DriverSQLite)
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "tally.db")

	a, err := New(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, ok := a.Store.(*sqlstore.Store); !ok {
		t.Fatalf("store = %T, want *sqlstore.Store", a.Store)
	}
	ctx := context.Background()
	c, err := a.Engine.CreateClient(ctx, "Acme", 10)
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == 0 {
		t.Fatal("client not persisted")
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(baseConfig("postgres"), &bytes.Buffer{}); err == nil {
		t.Fatal("unknown driver should fail")
	}
	cfg := baseConfig(config.DriverMemory)
	cfg.Log.Level = "chatty"
	if _, err := New(cfg, &bytes.Buffer{}); err == nil {
		t.Fatal("bad log level should fail")
	}
}
