// Package config loads the API server configuration from config.yaml,
// BENCHMARKBOX_* environment variables and built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"benchmarkbox/internal/store"
	"benchmarkbox/internal/types"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Fetch  FetchConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimit      float64  `mapstructure:"rate_limit"` // requests per second per client, 0 disables
	RateBurst      int      `mapstructure:"rate_burst"`
}

// StoreConfig selects and configures the store backend
type StoreConfig struct {
	Backend       string        `mapstructure:"backend"` // "memory", "sqlite" or "redis"
	Path          string        `mapstructure:"path"`
	RedisAddress  string        `mapstructure:"redis_address"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Key           string        `mapstructure:"key"`
	PendingMaxAge time.Duration `mapstructure:"pending_max_age"`
}

// FetchConfig holds the page loading settings
type FetchConfig struct {
	RequestDelay       time.Duration `mapstructure:"request_delay"`
	MaxRetries         int           `mapstructure:"max_retries"`
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxConcurrent      int           `mapstructure:"max_concurrent"`
	UseHeadlessBrowser bool          `mapstructure:"use_headless_browser"`
	UserAgent          string        `mapstructure:"user_agent"`
	BridgeTimeout      time.Duration `mapstructure:"bridge_timeout"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/benchmarkbox/")

	v.SetEnvPrefix("BENCHMARKBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	defaults := types.DefaultConfig()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.path", "benchmarkbox.db")
	v.SetDefault("store.redis_address", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.key", store.DefaultKey)
	v.SetDefault("store.pending_max_age", "30s")

	v.SetDefault("fetch.request_delay", defaults.RequestDelay.String())
	v.SetDefault("fetch.max_retries", defaults.MaxRetries)
	v.SetDefault("fetch.timeout", defaults.Timeout.String())
	v.SetDefault("fetch.max_concurrent", defaults.MaxConcurrentRequests)
	v.SetDefault("fetch.use_headless_browser", defaults.UseHeadlessBrowser)
	v.SetDefault("fetch.user_agent", defaults.UserAgent)
	v.SetDefault("fetch.bridge_timeout", defaults.BridgeTimeout.String())
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Store.Backend {
	case "memory":
	case "sqlite":
		if config.Store.Path == "" {
			return fmt.Errorf("store path is required when backend is 'sqlite'")
		}
	case "redis":
		if config.Store.RedisAddress == "" {
			return fmt.Errorf("redis address is required when backend is 'redis'")
		}
	default:
		return fmt.Errorf("store backend must be 'memory', 'sqlite' or 'redis', got: %s", config.Store.Backend)
	}

	if config.Fetch.MaxConcurrent < 1 {
		return fmt.Errorf("fetch max_concurrent must be at least 1, got: %d", config.Fetch.MaxConcurrent)
	}
	if config.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch max_retries cannot be negative, got: %d", config.Fetch.MaxRetries)
	}

	return nil
}

// ClientConfig converts the fetch section into the loader configuration
func (f FetchConfig) ClientConfig() *types.Config {
	return &types.Config{
		RequestDelay:          f.RequestDelay,
		MaxRetries:            f.MaxRetries,
		Timeout:               f.Timeout,
		MaxConcurrentRequests: f.MaxConcurrent,
		UseHeadlessBrowser:    f.UseHeadlessBrowser,
		UserAgent:             f.UserAgent,
		BridgeTimeout:         f.BridgeTimeout,
	}
}

// OpenBackend opens the configured store backend
func (s StoreConfig) OpenBackend() (store.Backend, error) {
	switch s.Backend {
	case "memory":
		return store.NewMemoryBackend(), nil
	case "sqlite":
		backend, err := store.NewSQLiteBackend(s.Path)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case "redis":
		backend, err := store.NewRedisBackend(s.RedisAddress, s.RedisPassword, s.RedisDB)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", s.Backend)
	}
}
