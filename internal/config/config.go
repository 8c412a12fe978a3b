// Package config loads ~/.stockdash/config.toml and applies environment
// overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"stockdash/internal/api"
)

// PathEnv overrides the config file location.
const PathEnv = "STOCKDASH_CONFIG"

// BaseDir is the per-user state directory relative to the home directory.
const BaseDir = ".stockdash"

// Config is the full configuration of the client and the server.
type Config struct {
	Client ClientConfig  `toml:"client"`
	Server ServerConfig  `toml:"server"`
	Log    LogConfig     `toml:"log"`
	LMS    api.LMSConfig `toml:"lms"` // initial global screen config served by `serve`
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	APIURL       string `toml:"api_url"`
	CacheDir     string `toml:"cache_dir"`
	SyncInterval int    `toml:"sync_interval"` // seconds between flushes of dirty layouts
	Login        string `toml:"login"`
	Password     string `toml:"password"`
	AnimationMS  int    `toml:"animation_ms"`
}

// ServerConfig configures `stockdash serve`.
type ServerConfig struct {
	Port              int    `toml:"port"`
	DBDriver          string `toml:"db_driver"` // sqlite3 or postgres
	DBDSN             string `toml:"db_dsn"`
	ReadTimeout       int    `toml:"read_timeout"`  // seconds
	WriteTimeout      int    `toml:"write_timeout"` // seconds
	PushRatePerMinute int    `toml:"push_rate_per_minute"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // client log file; the server logs to stderr
}

// SyncIntervalDuration returns the flush interval.
func (c ClientConfig) SyncIntervalDuration() time.Duration {
	return time.Duration(c.SyncInterval) * time.Second
}

// AnimationDuration returns the reorder animation length.
func (c ClientConfig) AnimationDuration() time.Duration {
	return time.Duration(c.AnimationMS) * time.Millisecond
}

// ReadTimeoutDuration returns the server read timeout.
func (c ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the server write timeout.
func (c ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// HomeDir returns ~/.stockdash, or a relative .stockdash when the home
// directory is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return BaseDir
	}
	return filepath.Join(home, BaseDir)
}

// DefaultPath returns STOCKDASH_CONFIG or ~/.stockdash/config.toml.
func DefaultPath() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return filepath.Join(HomeDir(), "config.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	base := HomeDir()
	return &Config{
		Client: ClientConfig{
			APIURL:       api.DefaultURL,
			CacheDir:     filepath.Join(base, "cache"),
			SyncInterval: 60,
			Login:        "demo",
			Password:     "demo",
			AnimationMS:  220,
		},
		Server: ServerConfig{
			Port:              8000,
			DBDriver:          "sqlite3",
			DBDSN:             filepath.Join(base, "stockdash.db"),
			ReadTimeout:       10,
			WriteTimeout:      10,
			PushRatePerMinute: 6,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(base, "stockdash.log"),
		},
		LMS: api.DefaultLMSConfig(),
	}
}

// Load reads path (DefaultPath when empty) over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STOCKDASH_API_URL"); v != "" {
		cfg.Client.APIURL = v
	}
	if v := os.Getenv("STOCKDASH_CACHE_DIR"); v != "" {
		cfg.Client.CacheDir = v
	}
	if v := os.Getenv("STOCKDASH_LOGIN"); v != "" {
		cfg.Client.Login = v
	}
	if v := os.Getenv("STOCKDASH_PASSWORD"); v != "" {
		cfg.Client.Password = v
	}
	if v := os.Getenv("STOCKDASH_DB_DRIVER"); v != "" {
		cfg.Server.DBDriver = v
	}
	if v := os.Getenv("STOCKDASH_DB"); v != "" {
		cfg.Server.DBDSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("STOCKDASH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate rejects settings the client or server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port >= 65536 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.DBDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("server.db_driver %q: want sqlite3 or postgres", c.Server.DBDriver)
	}
	if c.Client.SyncInterval <= 0 {
		return fmt.Errorf("client.sync_interval must be positive")
	}
	if c.Client.AnimationMS < 0 {
		return fmt.Errorf("client.animation_ms must not be negative")
	}
	if c.Server.PushRatePerMinute < 0 {
		return fmt.Errorf("server.push_rate_per_minute must not be negative")
	}
	return nil
}
