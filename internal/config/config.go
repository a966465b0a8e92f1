// Package config loads tally settings from a YAML file and TALLY_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config is the full tally configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Timer   TimerConfig   `mapstructure:"timer"`
	Log     LogConfig     `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type StorageConfig struct {
	Driver     string      `mapstructure:"driver"`
	SQLitePath string      `mapstructure:"sqlite_path"`
	MySQL      MySQLConfig `mapstructure:"mysql"`
}

type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	DSN      string `mapstructure:"dsn"`
}

type TimerConfig struct {
	PausedWindow time.Duration `mapstructure:"paused_window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	SQL    bool   `mapstructure:"sql"`
}

// DefaultPath returns $XDG_CONFIG_HOME/tally/tally.yml, falling back to ~/.config.
func DefaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error getting user home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "tally", "tally.yml"), nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", filepath.Join(home, ".tally", "tally.db"))
	v.SetDefault("storage.mysql.host", "127.0.0.1")
	v.SetDefault("storage.mysql.port", 3306)
	v.SetDefault("storage.mysql.user", "")
	v.SetDefault("storage.mysql.password", "")
	v.SetDefault("storage.mysql.database", "tally")
	v.SetDefault("storage.mysql.dsn", "")
	v.SetDefault("timer.paused_window", "24h")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.sql", false)
}

// Load reads configuration. An explicit path must exist; without one the
// default location is tried and a missing file means defaults only.
func Load(path string) (Config, error) {
	var cfg Config

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("error getting user home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, homeDir)

	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return cfg, err
		}
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if explicit || !missing {
			return cfg, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		cfg.File = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.Storage.SQLitePath = expandHome(cfg.Storage.SQLitePath, homeDir)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverMySQL:
		if c.Storage.MySQL.DSN == "" && c.Storage.MySQL.Database == "" {
			return errors.New("storage.mysql.database or storage.mysql.dsn is required for the mysql driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q (want sqlite, mysql or memory)", c.Storage.Driver)
	}

	if c.Timer.PausedWindow <= 0 {
		return fmt.Errorf("timer.paused_window must be positive, got %s", c.Timer.PausedWindow)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q (want text or json)", c.Log.Format)
	}
	return nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
