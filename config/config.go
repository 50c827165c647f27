// Package config loads service configuration from an optional .env file,
// an optional YAML file and environment variables, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Database drivers accepted by DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the root configuration for the study service.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Profiling ProfilingConfig `yaml:"profiling"`
	Shutdown  ShutdownConfig  `yaml:"shutdown"`

	// envErrs holds environment values that could not be parsed; Validate reports them.
	envErrs []error
}

// ServiceConfig identifies the running service and its listen port.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
	Port    string `yaml:"port"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File enables a rotating log file next to stdout output when non-empty.
	File string `yaml:"file"`
}

// DatabaseConfig selects the storage driver and the PostgreSQL pool settings.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	URL         string `yaml:"url"`
	MaxConns    int32  `yaml:"max_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// SessionConfig controls the session cookie and its lifetime.
type SessionConfig struct {
	CookieName   string `yaml:"cookie_name"`
	TTL          string `yaml:"ttl"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// AuthConfig holds the bcrypt work factor for password hashes.
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// CORSConfig names the single front-end origin allowed to send credentials.
type CORSConfig struct {
	AllowedOrigin string `yaml:"allowed_origin"`
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// ShutdownConfig holds graceful shutdown durations.
type ShutdownConfig struct {
	Timeout             string `yaml:"timeout"`
	ReadinessDrainDelay string `yaml:"readiness_drain_delay"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:    "study-service",
			Version: "dev",
			Env:     "development",
			Port:    "5555",
		},
		Logging: LoggingConfig{Level: "info"},
		Database: DatabaseConfig{
			Driver:   DriverPostgres,
			MaxConns: 10,
		},
		Session: SessionConfig{
			CookieName: "session_id",
			TTL:        "24h",
		},
		Auth: AuthConfig{BcryptCost: bcrypt.DefaultCost},
		CORS: CORSConfig{AllowedOrigin: "http://localhost:3000"},
		Tracing: TracingConfig{
			Endpoint:   "localhost:4318",
			SampleRate: 1.0,
		},
		Profiling: ProfilingConfig{Endpoint: "http://localhost:4040"},
		Shutdown: ShutdownConfig{
			Timeout:             "10s",
			ReadinessDrainDelay: "0s",
		},
	}
}

// Load builds the configuration. A missing .env file or CONFIG_FILE is not an error;
// a CONFIG_FILE that exists but cannot be parsed is.
func Load() (*Config, error) {
	// .env is optional; real environment variables are never overwritten by it.
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Service.Name, "SERVICE_NAME")
	setString(&c.Service.Version, "SERVICE_VERSION")
	setString(&c.Service.Env, "ENV")
	setString(&c.Service.Port, "PORT")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.File, "LOG_FILE")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	if v, ok := c.lookupInt("DB_MAX_CONNS", 32); ok {
		c.Database.MaxConns = int32(v)
	}
	c.setBool(&c.Database.AutoMigrate, "DB_AUTO_MIGRATE")

	setString(&c.Session.CookieName, "SESSION_COOKIE_NAME")
	setString(&c.Session.TTL, "SESSION_TTL")
	c.setBool(&c.Session.CookieSecure, "SESSION_COOKIE_SECURE")

	if v, ok := c.lookupInt("BCRYPT_COST", 0); ok {
		c.Auth.BcryptCost = int(v)
	}

	setString(&c.CORS.AllowedOrigin, "CORS_ALLOWED_ORIGIN")

	c.setBool(&c.Tracing.Enabled, "TRACING_ENABLED")
	setString(&c.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	if v, ok := os.LookupEnv("TRACING_SAMPLE_RATE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("TRACING_SAMPLE_RATE: %w", err))
		} else {
			c.Tracing.SampleRate = f
		}
	}

	c.setBool(&c.Profiling.Enabled, "PROFILING_ENABLED")
	setString(&c.Profiling.Endpoint, "PYROSCOPE_ENDPOINT")

	setString(&c.Shutdown.Timeout, "SHUTDOWN_TIMEOUT")
	setString(&c.Shutdown.ReadinessDrainDelay, "READINESS_DRAIN_DELAY")
}

// Validate reports every configuration problem found, joined into one error.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)

	if c.Service.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}

	if ttl, err := time.ParseDuration(c.Session.TTL); err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be a positive duration, got %q", c.Session.TTL))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME is required"))
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("TRACING_SAMPLE_RATE must be within [0,1], got %v", c.Tracing.SampleRate))
	}

	if _, err := time.ParseDuration(c.Shutdown.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err))
	}
	if _, err := time.ParseDuration(c.Shutdown.ReadinessDrainDelay); err != nil {
		errs = append(errs, fmt.Errorf("READINESS_DRAIN_DELAY: %w", err))
	}

	return errors.Join(errs...)
}

// GetSessionTTLDuration returns the lifetime of an authenticated session.
func (c *Config) GetSessionTTLDuration() time.Duration {
	return parseDurationOr(c.Session.TTL, 24*time.Hour)
}

// GetShutdownTimeoutDuration returns how long the HTTP server gets to drain.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return parseDurationOr(c.Shutdown.Timeout, 10*time.Second)
}

// GetReadinessDrainDelayDuration returns how long /ready reports 503 before shutdown starts.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return parseDurationOr(c.Shutdown.ReadinessDrainDelay, 0)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c *Config) setBool(dst *bool, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		c.envErrs = append(c.envErrs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

// lookupInt parses key as an integer of the given bit size (0 means int).
func (c *Config) lookupInt(key string, bitSize int) (int64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, bitSize)
	if err != nil {
		c.envErrs = append(c.envErrs, fmt.Errorf("%s: %w", key, err))
		return 0, false
	}
	return n, true
}
