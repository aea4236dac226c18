// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/proxydash/proxydash/internal/vendor"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`       // HTTP server settings.
	Database  DatabaseConfig  `yaml:"database" envconfig:"DATABASE"`   // Database settings.
	Redis     RedisConfig     `yaml:"redis" envconfig:"REDIS"`         // Redis cache settings.
	Auth      AuthConfig      `yaml:"auth" envconfig:"AUTH"`           // Authentication settings.
	Log       LogConfig       `yaml:"log" envconfig:"LOG"`             // Logging settings.
	UsageSync UsageSyncConfig `yaml:"usage-sync" envconfig:"USAGESYNC"` // Background usage sync settings.

	Vendors []vendor.Config `yaml:"vendors"` // Vendors seeded at startup.
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"` // Listen address, host:port.
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" envconfig:"DSN"` // PostgreSQL or SQLite DSN.
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL string `yaml:"url" envconfig:"URL"` // redis:// connection URL, empty disables Redis.
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt-secret" envconfig:"JWT_SECRET"` // HMAC signing secret.
	JWTExpiry time.Duration `yaml:"jwt-expiry" envconfig:"JWT_EXPIRY"` // Token lifetime.
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level" envconfig:"LEVEL"`             // logrus level name.
	File       string `yaml:"file" envconfig:"FILE"`               // Log file path, empty logs to stderr.
	MaxSizeMB  int    `yaml:"max-size-mb" envconfig:"MAX_SIZE_MB"` // Rotate after this size.
	MaxBackups int    `yaml:"max-backups" envconfig:"MAX_BACKUPS"` // Rotated files to keep.
	MaxAgeDays int    `yaml:"max-age-days" envconfig:"MAX_AGE_DAYS"` // Rotated file retention.
}

// UsageSyncConfig holds background usage sync settings.
type UsageSyncConfig struct {
	Enabled     bool          `yaml:"enabled" envconfig:"ENABLED"`         // Run the poller when true.
	Interval    time.Duration `yaml:"interval" envconfig:"INTERVAL"`       // Delay between sync rounds.
	Concurrency int           `yaml:"concurrency" envconfig:"CONCURRENCY"` // Max parallel vendor fetches.
	Period      string        `yaml:"period" envconfig:"PERIOD"`           // Usage period to sync.
}

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":3001"},
		Database: DatabaseConfig{DSN: "data/proxydash.db"},
		Auth:     AuthConfig{JWTExpiry: 24 * time.Hour},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		UsageSync: UsageSyncConfig{
			Enabled:     true,
			Interval:    15 * time.Minute,
			Concurrency: 4,
			Period:      "week",
		},
	}
}

// Load reads configuration from path and applies PROXYDASH_* environment
// overrides. A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, errRead := os.ReadFile(path)
		switch {
		case errRead == nil:
			if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
			}
		case os.IsNotExist(errRead):
			// Fall through to defaults plus env overrides.
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, errRead)
		}
	}

	if errEnv := envconfig.Process("PROXYDASH", cfg); errEnv != nil {
		return nil, fmt.Errorf("config: env: %w", errEnv)
	}

	if errValidate := cfg.Validate(); errValidate != nil {
		return nil, errValidate
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("config: server addr required")
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("config: database dsn required")
	}
	if c.UsageSync.Concurrency < 1 {
		c.UsageSync.Concurrency = 1
	}
	if c.UsageSync.Interval <= 0 {
		c.UsageSync.Interval = 15 * time.Minute
	}
	if c.Auth.JWTExpiry <= 0 {
		c.Auth.JWTExpiry = 24 * time.Hour
	}
	seen := map[string]struct{}{}
	for i := range c.Vendors {
		v := &c.Vendors[i]
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("config: vendors[%d]: id required", i)
		}
		if _, dup := seen[v.ID]; dup {
			return fmt.Errorf("config: duplicate vendor id %q", v.ID)
		}
		seen[v.ID] = struct{}{}
	}
	return nil
}
