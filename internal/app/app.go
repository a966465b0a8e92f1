// Package app wires configuration, logging, storage and the timer engine.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/balkashynov/tally/internal/config"
	"github.com/balkashynov/tally/internal/logging"
	"github.com/balkashynov/tally/internal/store"
	"github.com/balkashynov/tally/internal/store/memory"
	"github.com/balkashynov/tally/internal/store/sqlstore"
	"github.com/balkashynov/tally/internal/timer"
)

// App owns everything a command needs. Close releases the store.
type App struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Engine *timer.Engine
}

// New builds an App from cfg, logging to logOut.
func New(cfg config.Config, logOut io.Writer) (*App, error) {
	log, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	st, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}
	log.Debug("store opened", slog.String("driver", cfg.Storage.Driver))

	engine := timer.New(st,
		timer.WithLogger(log),
		timer.WithPausedWindow(cfg.Timer.PausedWindow),
	)
	return &App{Config: cfg, Log: log, Store: st, Engine: engine}, nil
}

// OpenStore opens the storage backend named by cfg.Storage.Driver.
func OpenStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	opts := sqlstore.Options{LogSQL: cfg.Log.SQL, Logger: log}

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		return sqlstore.OpenSQLite(cfg.Storage.SQLitePath, opts)
	case config.DriverMySQL:
		m := cfg.Storage.MySQL
		return sqlstore.OpenMySQL(sqlstore.MySQLConfig{
			DSN:      m.DSN,
			Host:     m.Host,
			Port:     m.Port,
			User:     m.User,
			Password: m.Password,
			Database: m.Database,
		}, opts)
	case config.DriverMemory:
		log.Warn("using the in-memory store; nothing will be saved")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
