package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestLoad_FromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_DETAIL_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, time.Hour, cfg.Redis.DetailTTL)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 20, cfg.Backfill.BatchSize)
}

func TestLoad_FromFile(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7070
gemini:
  api_key: file-key
  model: gemini-test
backfill:
  enabled: false
log:
  format: text
`), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "gemini-test", cfg.Gemini.Model)
	assert.False(t, cfg.Backfill.Enabled)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8080},
			Gemini:    GeminiConfig{APIKey: "k"},
			Database:  DatabaseConfig{DSN: "postgres://x"},
			RateLimit: RateLimitConfig{Enabled: true, RPS: 1, Burst: 5},
			Backfill:  BackfillConfig{Enabled: true, Interval: time.Minute, BatchSize: 5},
			Log:       LogConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "no dsn", mutate: func(c *Config) { c.Database.DSN = "" }},
		{name: "no api key", mutate: func(c *Config) { c.Gemini.APIKey = "" }},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }},
		{name: "zero burst", mutate: func(c *Config) { c.RateLimit.Burst = 0 }},
		{name: "zero interval", mutate: func(c *Config) { c.Backfill.Interval = 0 }},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadClient(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ESLCTL_CONFIG", "")
	t.Setenv("ESL_API_URL", "http://api.example")
	t.Setenv("ESL_CACHE_BACKEND", "memory")
	t.Setenv("ESL_DEDUP_ON_APPEND", "true")

	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "http://api.example", cfg.BaseURL)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.True(t, cfg.DedupOnAppend)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 64, cfg.Cache.MaxDetails)
}

func TestLoadClient_DefaultSQLitePath(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ESLCTL_CONFIG", "")
	t.Setenv("ESL_CACHE_BACKEND", "sqlite")
	t.Setenv("ESL_CACHE_PATH", "")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "cache.db", filepath.Base(cfg.Cache.Path))
}
