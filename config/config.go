// Package config loads dispatch-layer settings from the environment using
// struct-tag decoding. Every field has a default, so a zero-configuration
// environment yields a working in-memory setup.
package config

import (
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds the tunables of the dispatch layer.
type Config struct {
	// SessionIdleTimeout is how long a session may sit idle before the
	// sweeper destroys it. ENV: SESSION_IDLE_TIMEOUT
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT,default=30m"`

	// SessionSweepInterval is how often the idle sweeper runs.
	// ENV: SESSION_SWEEP_INTERVAL
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL,default=1m"`

	// ListPageSize is the pagination size for capability listings.
	// ENV: LIST_PAGE_SIZE
	ListPageSize int `env:"LIST_PAGE_SIZE,default=50"`

	// RedisAddr, when set, enables the Redis session-activity mirror.
	// ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default="`

	// AuthIssuer, when set, is the OIDC issuer used by the optional bearer
	// token verifier at the transport boundary. ENV: AUTH_ISSUER
	AuthIssuer string `env:"AUTH_ISSUER,default="`

	// AuthAudience is enforced against tokens when non-empty.
	// ENV: AUTH_AUDIENCE
	AuthAudience string `env:"AUTH_AUDIENCE,default="`
}

// FromEnv decodes a Config from the environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in defaults without consulting the environment.
func Default() Config {
	return Config{
		SessionIdleTimeout:   30 * time.Minute,
		SessionSweepInterval: time.Minute,
		ListPageSize:         50,
	}
}
