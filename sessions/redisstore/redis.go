package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// Config for the Redis activity mirror. Defaults can be loaded via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: SESSIONS_KEY_PREFIX
	KeyPrefix string `env:"SESSIONS_KEY_PREFIX,default=caphub:sessions:"`
	// ActivityTTL bounds how long an activity key survives without a touch.
	// ENV: SESSIONS_ACTIVITY_TTL
	ActivityTTL time.Duration `env:"SESSIONS_ACTIVITY_TTL,default=30m"`
}

// Mirror implements sessions.ActivityMirror on top of Redis.
type Mirror struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// New constructs a Mirror and verifies connectivity with a ping.
func New(cfg Config) (*Mirror, error) {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "caphub:sessions:"
	}
	ttl := cfg.ActivityTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Mirror{client: cl, keyPrefix: prefix, ttl: ttl}, nil
}

// NewFromEnv builds a Mirror using envdecode to populate Config.
func NewFromEnv() (*Mirror, error) {
	var cfg Config
	// Defaults are provided via struct tags.
	_ = envdecode.Decode(&cfg)
	return New(cfg)
}

// Close closes the Redis client.
func (m *Mirror) Close() error { return m.client.Close() }

func (m *Mirror) activityKey(sessionID string) string {
	return m.keyPrefix + "activity:" + sessionID
}

// Touch records activity for the session, refreshing the key TTL.
func (m *Mirror) Touch(ctx context.Context, sessionID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return m.client.Set(ctx, m.activityKey(sessionID), now, m.ttl).Err()
}

// Forget drops the activity record for a destroyed session.
func (m *Mirror) Forget(ctx context.Context, sessionID string) error {
	return m.client.Del(ctx, m.activityKey(sessionID)).Err()
}

// LastActivity reports the mirrored activity timestamp, if the key is still
// live. ok is false when the key has expired or was never written.
func (m *Mirror) LastActivity(ctx context.Context, sessionID string) (time.Time, bool, error) {
	v, err := m.client.Get(ctx, m.activityKey(sessionID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse activity timestamp: %w", err)
	}
	return t, true, nil
}
