// Package config loads backfill settings from a YAML file, optional .env
// files and BACKFILL_* environment variables, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Checkpoint backends.
const (
	CheckpointPostgres = "postgres"
	CheckpointRedis    = "redis"
	CheckpointBadger   = "badger"
	CheckpointMemory   = "memory"
)

// Store drivers; these match the msgs driver names.
const (
	DriverPgx  = "pgx"
	DriverGORM = "gorm"
	DriverBun  = "bun"
)

const (
	defaultBatchSize  = 1000
	maxBatchSize      = 32767
	defaultBadgerPath = ".backfill/highpoint"
	defaultRedisAddr  = "localhost:6379"
)

// DatabaseConfig points at the host application's Postgres database.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Driver   string `yaml:"driver"`
	MaxConns int32  `yaml:"max_conns"`
}

// RedisConfig is used when the checkpoint backend is redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CheckpointConfig selects where the highpoint lives.
type CheckpointConfig struct {
	Backend    string      `yaml:"backend"`
	Key        string      `yaml:"key"`
	Redis      RedisConfig `yaml:"redis"`
	BadgerPath string      `yaml:"badger_path"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Config models the backfill YAML file.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	BatchSize  int              `yaml:"batch_size"`
	RateLimit  float64          `yaml:"rate_limit"` // broadcasts per second, 0 = unlimited
	Log        LogConfig        `yaml:"log"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: DriverPgx},
		Checkpoint: CheckpointConfig{
			Backend:    CheckpointPostgres,
			Redis:      RedisConfig{Addr: defaultRedisAddr},
			BadgerPath: defaultBadgerPath,
		},
		BatchSize: defaultBatchSize,
		Log:       LogConfig{Level: "info", Console: true},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), the given .env files and the process environment, then
// validates it. Missing .env files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles sets variables from .env files without overriding ones
// already present in the environment.
func loadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("BACKFILL_DATABASE_URL", &c.Database.URL)
	str("BACKFILL_STORE_DRIVER", &c.Database.Driver)
	str("BACKFILL_CHECKPOINT_BACKEND", &c.Checkpoint.Backend)
	str("BACKFILL_CHECKPOINT_KEY", &c.Checkpoint.Key)
	str("BACKFILL_REDIS_ADDR", &c.Checkpoint.Redis.Addr)
	str("BACKFILL_REDIS_PASSWORD", &c.Checkpoint.Redis.Password)
	str("BACKFILL_BADGER_PATH", &c.Checkpoint.BadgerPath)
	str("BACKFILL_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("BACKFILL_BATCH_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: BACKFILL_BATCH_SIZE: %w", err)
		}
		c.BatchSize = n
	}
	if v, ok := lookup("BACKFILL_RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: BACKFILL_RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	if v, ok := lookup("BACKFILL_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: BACKFILL_REDIS_DB: %w", err)
		}
		c.Checkpoint.Redis.DB = n
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("config: database url is required (database.url or BACKFILL_DATABASE_URL)")
	}
	switch c.Database.Driver {
	case DriverPgx, DriverGORM, DriverBun:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Database.Driver)
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("config: max_conns must not be negative, got %d", c.Database.MaxConns)
	}
	if c.BatchSize <= 0 || c.BatchSize > maxBatchSize {
		return fmt.Errorf("config: batch_size must be between 1 and %d, got %d", maxBatchSize, c.BatchSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rate_limit must not be negative, got %g", c.RateLimit)
	}

	switch c.Checkpoint.Backend {
	case CheckpointPostgres, CheckpointMemory:
	case CheckpointRedis:
		if c.Checkpoint.Redis.Addr == "" {
			return errors.New("config: checkpoint.redis.addr is required for the redis backend")
		}
	case CheckpointBadger:
		if c.Checkpoint.BadgerPath == "" {
			return errors.New("config: checkpoint.badger_path is required for the badger backend")
		}
	default:
		return fmt.Errorf("config: unknown checkpoint backend %q", c.Checkpoint.Backend)
	}
	return nil
}
