// Package main provides the SpectraOps server CLI.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retention RetentionConfig `yaml:"retention"`
	Verbose   bool            `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address     string   `yaml:"address"`      // HTTP listen address (default: :8080)
	CORSOrigins []string `yaml:"cors_origins"` // allowed dashboard origins
	TrustProxy  bool     `yaml:"trust_proxy"`  // honor forwarding headers
	SessionTTL  string   `yaml:"session_ttl"`  // dashboard session lifetime (default: 24h)
}

// DatabaseConfig contains storage settings.
type DatabaseConfig struct {
	Path         string `yaml:"path"`           // SQLite database file
	MaxOpenConns int    `yaml:"max_open_conns"` // connection pool size
}

// RateLimitConfig contains per-IP rate limit settings.
type RateLimitConfig struct {
	Max      int    `yaml:"max"`    // requests per window (default: 100)
	WindowMS int    `yaml:"-"`      // set via env only
	Window   string `yaml:"window"` // window duration (default: 1m)
}

// RetentionConfig contains background sweep settings.
type RetentionConfig struct {
	EventMaxAgeDays int    `yaml:"event_max_age_days"` // default: 90
	SweepInterval   string `yaml:"sweep_interval"`     // default: 1h
}

// LoadConfig loads configuration from a YAML file, then applies environment
// overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration built from defaults and environment
// overrides alone.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg
}

// applyEnv maps environment variables onto the config. Env wins over file
// values so container deployments can override without editing YAML.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Database.MaxOpenConns = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.Max = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.WindowMS = n
		}
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		c.Server.CORSOrigins = []string{v}
	}
	if v := os.Getenv("TRUST_PROXY"); v != "" {
		c.Server.TrustProxy = v == "1" || v == "true"
	}
	if v := os.Getenv("ERROR_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retention.EventMaxAgeDays = n
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Address = ":" + v
	}
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.SessionTTL == "" {
		c.Server.SessionTTL = "24h"
	}
	if c.Database.Path == "" {
		c.Database.Path = "spectraops.db"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = 100
	}
	if c.RateLimit.Window == "" && c.RateLimit.WindowMS == 0 {
		c.RateLimit.Window = "1m"
	}
	if c.Retention.EventMaxAgeDays == 0 {
		c.Retention.EventMaxAgeDays = 90
	}
	if c.Retention.SweepInterval == "" {
		c.Retention.SweepInterval = "1h"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.RateLimit.Max < 0 {
		return fmt.Errorf("rate_limit.max must not be negative")
	}
	if c.Retention.EventMaxAgeDays < 1 {
		return fmt.Errorf("retention.event_max_age_days must be at least 1")
	}
	if _, err := c.SessionTTL(); err != nil {
		return fmt.Errorf("server.session_ttl: %w", err)
	}
	if _, err := c.RateLimitWindow(); err != nil {
		return fmt.Errorf("rate_limit.window: %w", err)
	}
	if _, err := c.SweepInterval(); err != nil {
		return fmt.Errorf("retention.sweep_interval: %w", err)
	}
	return nil
}

// SessionTTL returns the parsed session lifetime.
func (c *Config) SessionTTL() (time.Duration, error) {
	return time.ParseDuration(c.Server.SessionTTL)
}

// RateLimitWindow returns the parsed rate-limit window. The millisecond
// env override takes precedence over the YAML duration.
func (c *Config) RateLimitWindow() (time.Duration, error) {
	if c.RateLimit.WindowMS > 0 {
		return time.Duration(c.RateLimit.WindowMS) * time.Millisecond, nil
	}
	return time.ParseDuration(c.RateLimit.Window)
}

// SweepInterval returns the parsed retention sweep interval.
func (c *Config) SweepInterval() (time.Duration, error) {
	return time.ParseDuration(c.Retention.SweepInterval)
}

// EventMaxAge returns the event retention horizon as a duration.
func (c *Config) EventMaxAge() time.Duration {
	return time.Duration(c.Retention.EventMaxAgeDays) * 24 * time.Hour
}
