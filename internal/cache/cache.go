package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"quill/internal/config"
	"quill/internal/stage"
)

const keyPrefix = "quill:profile:"

// ProfileCache is the Detective's view of the cache.
type ProfileCache interface {
	Get(ctx context.Context, login string) (*stage.Profile, bool, error)
	Put(ctx context.Context, login string, profile *stage.Profile) error
	Ping(ctx context.Context) error
	Close() error
}

// Key returns the Redis key a login is stored under.
func Key(login string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(login))
}

// New builds a Redis-backed cache, or a no-op cache when no address is
// configured.
func New(cfg *config.Config) ProfileCache {
	if cfg == nil || strings.TrimSpace(cfg.Cache.RedisAddr) == "" {
		return Noop{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Cache.RedisAddr),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	return NewRedis(rdb, cfg.ProfileTTL())
}

// Redis stores profiles as JSON strings with a TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

// Get returns the cached profile for login. A missing key is a miss, not an
// error.
func (r *Redis) Get(ctx context.Context, login string) (*stage.Profile, bool, error) {
	raw, err := r.rdb.Get(ctx, Key(login)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var profile stage.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		// A stale encoding is treated as a miss and overwritten on the next Put.
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &profile, true, nil
}

// Put stores profile under login with the configured TTL.
func (r *Redis) Put(ctx context.Context, login string, profile *stage.Profile) error {
	if profile == nil {
		return nil
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := r.rdb.Set(ctx, Key(login), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (*stage.Profile, bool, error) { return nil, false, nil }
func (Noop) Put(context.Context, string, *stage.Profile) error         { return nil }
func (Noop) Ping(context.Context) error                                { return nil }
func (Noop) Close() error                                              { return nil }
