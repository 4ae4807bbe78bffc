// Package config loads runtime configuration from an optional YAML file
// overlaid by STRUCTURE_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/structure/internal/backend"
	"github.com/roach88/structure/internal/store"
)

// EnvPrefix prefixes every environment variable, e.g. STRUCTURE_STORAGE_DSN.
const EnvPrefix = "STRUCTURE_"

// Config is the complete runtime configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Pool      PoolConfig      `yaml:"pool" envPrefix:"POOL_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// StorageConfig selects the backend database.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	DSN    string `yaml:"dsn" env:"DSN"`
}

// PoolConfig bounds backend calls.
type PoolConfig struct {
	Workers     int           `yaml:"workers" env:"WORKERS"`
	CallTimeout time.Duration `yaml:"call_timeout" env:"CALL_TIMEOUT"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level     string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format    string `yaml:"format" env:"FORMAT"` // text or json
	File      string `yaml:"file" env:"FILE"`     // empty means stderr
	MaxSizeMB int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxFiles  int    `yaml:"max_files" env:"MAX_FILES"`

	// RedactKeys names attributes to mask in addition to the built-in
	// secret, secret_key, dsn, password and token.
	RedactKeys []string `yaml:"redact_keys" env:"REDACT_KEYS" envSeparator:","`
}

// TelemetryConfig controls tracing and metrics export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Stdout   bool   `yaml:"stdout" env:"STDOUT"`
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"` // OTLP/HTTP host:port
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Driver: store.DriverSQLite,
			DSN:    "structure.db",
		},
		Pool: PoolConfig{
			Workers:     backend.DefaultWorkers,
			CallTimeout: backend.DefaultCallTimeout,
		},
		Log: LogConfig{
			Level:     "info",
			Format:    "text",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path (skipped
// when path is empty), then the environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeYAML rejects keys that do not map to a field.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !slices.Contains(store.Drivers(), c.Storage.Driver) {
		return fmt.Errorf("config: storage.driver %q must be one of %s",
			c.Storage.Driver, strings.Join(store.Drivers(), ", "))
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn must not be empty")
	}
	if c.Pool.Workers <= 0 {
		return fmt.Errorf("config: pool.workers must be positive, got %d", c.Pool.Workers)
	}
	if c.Pool.CallTimeout <= 0 {
		return fmt.Errorf("config: pool.call_timeout must be positive, got %s", c.Pool.CallTimeout)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}
