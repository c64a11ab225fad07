package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for configuration fields.
const (
	DefaultConfigFile       = "stepmigrate.yml"
	DefaultDriver           = "sqlite"
	DefaultDatabase         = "database.db"
	DefaultDataDir          = "data"
	DefaultLockTimeout      = 5 * time.Second
	DefaultStatementTimeout = 0
	DefaultFormat           = "text"
	DefaultLogLevel         = "info"
)

// EnvPrefix is prepended to every environment variable name read by MergeEnv.
const EnvPrefix = "STEPMIGRATE_"

// ErrInvalidConfig indicates a configuration value outside its allowed set.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the application configuration loaded from file, environment, and flags.
// The env tags are relative to EnvPrefix.
type Config struct {
	Driver           string        `env:"DRIVER"`
	Database         string        `env:"DATABASE"` // SQLite file path or PostgreSQL URL
	DataDir          string        `env:"DATA_DIR"`
	LockTimeout      time.Duration `env:"LOCK_TIMEOUT"`
	StatementTimeout time.Duration `env:"STATEMENT_TIMEOUT"`
	Format           string        `env:"FORMAT"`
	LogLevel         string        `env:"LOG_LEVEL"`
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	Driver           string `yaml:"driver"`
	Database         string `yaml:"database"`
	DataDir          string `yaml:"data_dir"`
	LockTimeout      string `yaml:"lock_timeout"`
	StatementTimeout string `yaml:"statement_timeout"`
	Format           string `yaml:"format"`
	LogLevel         string `yaml:"log_level"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		Driver:           DefaultDriver,
		Database:         DefaultDatabase,
		DataDir:          DefaultDataDir,
		LockTimeout:      DefaultLockTimeout,
		StatementTimeout: DefaultStatementTimeout,
		Format:           DefaultFormat,
		LogLevel:         DefaultLogLevel,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.Driver, raw.Driver)
	setString(&cfg.Database, raw.Database)
	setString(&cfg.DataDir, raw.DataDir)
	setString(&cfg.Format, raw.Format)
	setString(&cfg.LogLevel, raw.LogLevel)

	if raw.LockTimeout != "" {
		d, err := time.ParseDuration(raw.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing lock_timeout %q: %w", raw.LockTimeout, err)
		}

		cfg.LockTimeout = d
	}

	if raw.StatementTimeout != "" {
		d, err := time.ParseDuration(raw.StatementTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing statement_timeout %q: %w", raw.StatementTimeout, err)
		}

		cfg.StatementTimeout = d
	}

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// MergeEnv overrides config fields from STEPMIGRATE_* environment variables.
// Unset variables leave the current values in place.
func MergeEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// Validate checks enumerated fields and durations.
func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: driver %q (want sqlite or postgres)", ErrInvalidConfig, c.Driver)
	}

	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: format %q (want text or json)", ErrInvalidConfig, c.Format)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q (want debug, info, warn or error)", ErrInvalidConfig, c.LogLevel)
	}

	if c.Database == "" {
		return fmt.Errorf("%w: database must not be empty", ErrInvalidConfig)
	}

	if c.LockTimeout < 0 || c.StatementTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
