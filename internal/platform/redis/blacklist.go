// Package redis provides the Redis-backed token blacklist.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces blacklist entries in a shared Redis database.
const DefaultKeyPrefix = "blacklist:"

// revokedMarker is the value stored for a revoked token; only the key's
// existence matters.
const revokedMarker = "true"

// Blacklist stores revoked access tokens as expiring Redis keys.
type Blacklist struct {
	client goredis.Cmdable
	prefix string
	logger *slog.Logger
}

// NewBlacklist creates a Blacklist over an existing client.
func NewBlacklist(client goredis.Cmdable, logger *slog.Logger) *Blacklist {
	if logger == nil {
		logger = slog.Default()
	}
	return &Blacklist{
		client: client,
		prefix: DefaultKeyPrefix,
		logger: logger.With(slog.String("component", "redis_blacklist")),
	}
}

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Add marks token as revoked for ttl.
func (b *Blacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("blacklist ttl must be positive")
	}
	if err := b.client.Set(ctx, b.prefix+token, revokedMarker, ttl).Err(); err != nil {
		b.logger.Error("failed to blacklist token", "error", err)
		return fmt.Errorf("failed to write blacklist entry: %w", err)
	}
	return nil
}

// Contains reports whether token is currently blacklisted.
func (b *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read blacklist entry: %w", err)
	}
	return n > 0, nil
}
