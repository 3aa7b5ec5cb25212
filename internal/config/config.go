// Package config loads surveyflow settings from defaults, an optional YAML
// file, a .env file and SURVEYFLOW_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/petrijr/surveyflow/internal/persistence"
)

// EnvPrefix prefixes every environment override, e.g. SURVEYFLOW_STORAGE_BACKEND.
const EnvPrefix = "SURVEYFLOW"

type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Schema  SchemaConfig  `mapstructure:"schema"`
	Log     LogConfig     `mapstructure:"log"`
}

type StorageConfig struct {
	Backend       string        `mapstructure:"backend"`
	Path          string        `mapstructure:"path"`
	DSN           string        `mapstructure:"dsn"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	MongoURI      string        `mapstructure:"mongo_uri"`
	Key           string        `mapstructure:"key"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
}

type CatalogConfig struct {
	// Path to a YAML or JSON catalog. Empty uses the embedded catalog.
	Path string `mapstructure:"path"`
}

type SchemaConfig struct {
	Version string `mapstructure:"version"`
}

type LogConfig struct {
	// File receives log output; "stderr" writes to standard error and an
	// empty value discards logs.
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Options controls where Load looks for input.
type Options struct {
	// ConfigFile is an explicit config path. When empty, surveyflow.yaml is
	// searched in the working directory and $HOME/.config/surveyflow.
	ConfigFile string
	// EnvFile is loaded into the process environment first. Defaults to
	// ".env"; a missing file is ignored.
	EnvFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", persistence.KindSQLite)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("storage.key", persistence.DefaultKey)
	v.SetDefault("storage.retry_attempts", 3)
	v.SetDefault("storage.retry_backoff", 50*time.Millisecond)

	v.SetDefault("catalog.path", "")

	v.SetDefault("schema.version", persistence.DefaultSchemaVersion)

	v.SetDefault("log.file", "surveyflow.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// Load reads the configuration.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("surveyflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/surveyflow")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if !slices.Contains(persistence.Kinds, c.Storage.Backend) {
		return fmt.Errorf("config: storage.backend %q must be one of %s",
			c.Storage.Backend, strings.Join(persistence.Kinds, ", "))
	}
	if c.Storage.Key == "" {
		return errors.New("config: storage.key must not be empty")
	}
	if c.Schema.Version == "" {
		return errors.New("config: schema.version must not be empty")
	}
	if c.Storage.RetryAttempts < 0 {
		return errors.New("config: storage.retry_attempts must not be negative")
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

// PersistenceOptions converts the storage settings for persistence.Open.
// An empty path picks a per-backend default in the working directory.
func (s StorageConfig) PersistenceOptions() persistence.Options {
	path := s.Path
	if path == "" {
		switch s.Backend {
		case persistence.KindSQLite:
			path = "surveyflow.db"
		case persistence.KindFile:
			path = "surveyflow-sessions"
		case persistence.KindBadger:
			path = "surveyflow-badger"
		}
	}

	retry := persistence.DefaultRetryPolicy
	retry.MaxAttempts = s.RetryAttempts
	retry.InitialBackoff = s.RetryBackoff

	return persistence.Options{
		Kind:      s.Backend,
		Path:      path,
		DSN:       s.DSN,
		RedisAddr: s.RedisAddr,
		MongoURI:  s.MongoURI,
		Retry:     retry,
	}
}
