// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aretw0/tapestry/internal/logging"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is the process configuration. CLI flags override these values.
type Config struct {
	Store      string `env:"TAPESTRY_STORE" envDefault:"sqlite"`
	SQLitePath string `env:"TAPESTRY_SQLITE_PATH" envDefault:"tapestry.db"`

	RedisAddr     string `env:"TAPESTRY_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"TAPESTRY_REDIS_PASSWORD"`
	RedisDB       int    `env:"TAPESTRY_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"TAPESTRY_REDIS_PREFIX" envDefault:"tapestry"`

	LogLevel  string `env:"TAPESTRY_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"TAPESTRY_LOG_FORMAT" envDefault:"text"`

	HistoryLimit int    `env:"TAPESTRY_HISTORY_LIMIT" envDefault:"0"`
	StrictRoutes bool   `env:"TAPESTRY_STRICT_ROUTES" envDefault:"false"`
	HTTPAddr     string `env:"TAPESTRY_HTTP_ADDR" envDefault:":8080"`
	OTelEndpoint string `env:"TAPESTRY_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"TAPESTRY_OTEL_ENABLED" envDefault:"true"`
}

// Load reads an optional .env file from the working directory, then parses the environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch strings.ToLower(c.Store) {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want memory, sqlite or redis)", c.Store)
	}
	switch logging.Format(strings.ToLower(c.LogFormat)) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative, got %d", c.HistoryLimit)
	}
	return nil
}

// Logger builds the process logger described by the configuration.
func (c Config) Logger() *slog.Logger {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level, logging.Format(strings.ToLower(c.LogFormat)))
}
