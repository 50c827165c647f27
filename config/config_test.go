package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "study-service", cfg.Service.Name)
	assert.Equal(t, "5555", cfg.Service.Port)
	assert.Equal(t, "session_id", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.GetSessionTTLDuration())
	assert.Equal(t, "http://localhost:3000", cfg.CORS.AllowedOrigin)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  port: "7000"
database:
  driver: postgres
  url: postgres://yaml
session:
  ttl: 2h
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Service.Port)
	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, 2*time.Hour, cfg.GetSessionTTLDuration())
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	require.NoError(t, cfg.Validate())
}

func TestValidateReportsMalformedEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_MAX_CONNS", "3000000000")
	t.Setenv("BCRYPT_COST", "ten")
	t.Setenv("TRACING_SAMPLE_RATE", "half")
	t.Setenv("DB_AUTO_MIGRATE", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	// Unparsable values leave the defaults in place.
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.False(t, cfg.Database.AutoMigrate)

	err = cfg.Validate()
	require.Error(t, err)
	for _, key := range []string{"DB_MAX_CONNS", "BCRYPT_COST", "TRACING_SAMPLE_RATE", "DB_AUTO_MIGRATE"} {
		assert.ErrorContains(t, err, key)
	}
}

func TestLoadParsesNumericAndBoolEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("TRACING_SAMPLE_RATE", " 0.5 ")
	t.Setenv("SESSION_COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, 0.5, cfg.Tracing.SampleRate)
	assert.True(t, cfg.Session.CookieSecure)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: [unterminated"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"postgres without url", func(c *Config) { c.Database.URL = "" }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "unknown DB_DRIVER"},
		{"zero ttl", func(c *Config) { c.Session.TTL = "0s" }, "SESSION_TTL"},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 1 }, "BCRYPT_COST"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "TRACING_SAMPLE_RATE"},
		{"empty port", func(c *Config) { c.Service.Port = "" }, "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Database.URL = "postgres://localhost/study"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
