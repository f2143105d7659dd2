// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// KeyPrefix namespaces chart images in Redis.
	KeyPrefix = "poll-image-"

	// VersionPrefix namespaces the per-poll image generation counters.
	VersionPrefix = "poll-image-version-"

	// DefaultTTL keeps an image until the poll changes, give or take a year.
	DefaultTTL = 365 * 24 * time.Hour
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	zap.L().Info("Connected to Redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return rdb, nil
}

// ImageCache stores rendered chart PNGs keyed by poll ID.
type ImageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewImageCache wraps rdb. A zero ttl uses DefaultTTL.
func NewImageCache(rdb *redis.Client, ttl time.Duration) *ImageCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ImageCache{rdb: rdb, ttl: ttl}
}

// Key returns the Redis key holding the poll's image.
func Key(pollID string) string {
	return KeyPrefix + pollID
}

// Get returns the cached image. A miss, or a value that is not a PNG,
// reports ok=false with no error.
func (c *ImageCache) Get(ctx context.Context, pollID string) (png []byte, ok bool, err error) {
	b, err := c.rdb.Get(ctx, Key(pollID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached image: %w", err)
	}

	if !bytes.HasPrefix(b, pngSignature) {
		zap.L().Warn("discarding malformed cached image",
			zap.String("poll_id", pollID),
			zap.Int("bytes", len(b)))
		return nil, false, nil
	}
	return b, true, nil
}

// VersionKey returns the Redis key holding the poll's image generation.
func VersionKey(pollID string) string {
	return VersionPrefix + pollID
}

// Version returns the poll's image generation: zero until the first
// Invalidate, then one more after each.
func (c *ImageCache) Version(ctx context.Context, pollID string) (int64, error) {
	v, err := c.rdb.Get(ctx, VersionKey(pollID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read image version: %w", err)
	}
	return v, nil
}

// SetIfCurrent stores an image rendered after reading version. If the
// poll was invalidated in the meantime nothing is stored and stored is
// false.
func (c *ImageCache) SetIfCurrent(ctx context.Context, pollID string, version int64, png []byte) (stored bool, err error) {
	key := VersionKey(pollID)

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(pollID), png, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to cache image: %w", err)
	}
	return stored, nil
}

// Invalidate deletes the cached image and bumps the poll's generation, so
// renders already in flight can't store their older image. Deleting a
// missing key is not an error.
func (c *ImageCache) Invalidate(ctx context.Context, pollID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, Key(pollID))
		pipe.Incr(ctx, VersionKey(pollID))
		pipe.Expire(ctx, VersionKey(pollID), c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate cached image: %w", err)
	}
	return nil
}

// Health checks if Redis is reachable.
func (c *ImageCache) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
