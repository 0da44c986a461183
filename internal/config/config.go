// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file, .env and environment.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ContentEndpoint is the GraphQL endpoint of the content service.
	ContentEndpoint string `koanf:"content_endpoint"`

	// ContentToken is sent as X-GQL-Token.
	ContentToken string `koanf:"content_token"`

	// ContentTimeoutMS bounds a single GraphQL request.
	ContentTimeoutMS int `koanf:"content_timeout_ms"`

	// ContentFixture, when set, serves candidates from a JSON file instead
	// of the content service.
	ContentFixture string `koanf:"content_fixture"`

	// CacheBackend is one of memory, redis or none.
	CacheBackend string `koanf:"cache_backend"`

	// CacheTTLSeconds is how long fetched collections stay cached.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// MaxSessions caps concurrently open picker sessions.
	MaxSessions int `koanf:"max_sessions"`

	// SessionTTLSeconds closes sessions idle for longer than this.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		ContentEndpoint:   "https://content-api.sitecorecloud.io/api/content/v1/preview/graphql/",
		ContentTimeoutMS:  10_000,
		CacheBackend:      CacheMemory,
		CacheTTLSeconds:   60,
		RedisAddr:         "localhost:6379",
		MaxSessions:       1_000,
		SessionTTLSeconds: 1_800,
	}
}

// ContentTimeout returns ContentTimeoutMS as a duration.
func (c *Config) ContentTimeout() time.Duration {
	return time.Duration(c.ContentTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SessionTTL returns SessionTTLSeconds as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ContentEndpoint == "" && c.ContentFixture == "":
		return fmt.Errorf("%w: content_endpoint or content_fixture is required", ErrInvalidConfig)
	case c.ContentTimeoutMS <= 0:
		return fmt.Errorf("%w: content_timeout_ms must be positive", ErrInvalidConfig)
	case c.MaxSessions <= 0:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.SessionTTLSeconds <= 0:
		return fmt.Errorf("%w: session_ttl_seconds must be positive", ErrInvalidConfig)
	}
	switch c.CacheBackend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}
	return nil
}
