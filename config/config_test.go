package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchmarkbox/internal/store"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "development", cfg.Server.Environment)
		assert.Equal(t, 10.0, cfg.Server.RateLimit)
		assert.Equal(t, "sqlite", cfg.Store.Backend)
		assert.Equal(t, "benchmarkbox.db", cfg.Store.Path)
		assert.Equal(t, store.DefaultKey, cfg.Store.Key)
		assert.Equal(t, 30*time.Second, cfg.Store.PendingMaxAge)
		assert.Equal(t, time.Second, cfg.Fetch.RequestDelay)
		assert.Equal(t, 3, cfg.Fetch.MaxRetries)
		assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
		assert.Equal(t, 5, cfg.Fetch.MaxConcurrent)
		assert.Equal(t, 45*time.Second, cfg.Fetch.BridgeTimeout)
		assert.NotEmpty(t, cfg.Fetch.UserAgent)
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("BENCHMARKBOX_SERVER_PORT", "9090")
		t.Setenv("BENCHMARKBOX_SERVER_ENVIRONMENT", "production")
		t.Setenv("BENCHMARKBOX_SERVER_ALLOWED_ORIGINS", "http://localhost:3000,https://app.example")
		t.Setenv("BENCHMARKBOX_STORE_BACKEND", "redis")
		t.Setenv("BENCHMARKBOX_STORE_REDIS_ADDRESS", "cache:6379")
		t.Setenv("BENCHMARKBOX_STORE_REDIS_DB", "2")
		t.Setenv("BENCHMARKBOX_FETCH_TIMEOUT", "10s")
		t.Setenv("BENCHMARKBOX_FETCH_MAX_CONCURRENT", "8")
		t.Setenv("BENCHMARKBOX_FETCH_USE_HEADLESS_BROWSER", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, "production", cfg.Server.Environment)
		assert.Equal(t, []string{"http://localhost:3000", "https://app.example"}, cfg.Server.AllowedOrigins)
		assert.Equal(t, "redis", cfg.Store.Backend)
		assert.Equal(t, "cache:6379", cfg.Store.RedisAddress)
		assert.Equal(t, 2, cfg.Store.RedisDB)
		assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
		assert.Equal(t, 8, cfg.Fetch.MaxConcurrent)
		assert.True(t, cfg.Fetch.UseHeadlessBrowser)
	})

	t.Run("fails validation for unknown backend", func(t *testing.T) {
		t.Setenv("BENCHMARKBOX_STORE_BACKEND", "postgres")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store: StoreConfig{Backend: "memory"},
			Fetch: FetchConfig{MaxConcurrent: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "memory backend", mutate: func(*Config) {}},
		{name: "sqlite with path", mutate: func(c *Config) { c.Store.Backend = "sqlite"; c.Store.Path = "x.db" }},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store.Backend = "sqlite" }, wantErr: true},
		{name: "redis with address", mutate: func(c *Config) { c.Store.Backend = "redis"; c.Store.RedisAddress = "localhost:6379" }},
		{name: "redis without address", mutate: func(c *Config) { c.Store.Backend = "redis" }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "files" }, wantErr: true},
		{name: "no concurrency", mutate: func(c *Config) { c.Fetch.MaxConcurrent = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.Fetch.MaxRetries = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClientConfig(t *testing.T) {
	fetch := FetchConfig{
		RequestDelay:       2 * time.Second,
		MaxRetries:         1,
		Timeout:            5 * time.Second,
		MaxConcurrent:      3,
		UseHeadlessBrowser: true,
		UserAgent:          "bb-test",
		BridgeTimeout:      time.Second,
	}

	cfg := fetch.ClientConfig()
	assert.Equal(t, 2*time.Second, cfg.RequestDelay)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxConcurrentRequests)
	assert.True(t, cfg.UseHeadlessBrowser)
	assert.Equal(t, "bb-test", cfg.UserAgent)
	assert.Equal(t, time.Second, cfg.BridgeTimeout)
}

func TestOpenBackend(t *testing.T) {
	memory, err := StoreConfig{Backend: "memory"}.OpenBackend()
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryBackend{}, memory)
	assert.NoError(t, memory.Close())

	sqlite, err := StoreConfig{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "bb.db")}.OpenBackend()
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteBackend{}, sqlite)
	assert.NoError(t, sqlite.Close())

	_, err = StoreConfig{Backend: "tape"}.OpenBackend()
	assert.Error(t, err)
}
