package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retailgrid/settings-engine/internal/settings"
)

// Cache is a Redis read-through decorator over another adapter. Loads are
// served from cache when possible; every write goes to the inner adapter
// and invalidates the cached copy.
type Cache struct {
	inner  settings.PersistenceAdapter
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewCache wraps inner with a Redis cache. A zero ttl disables expiry.
func NewCache(inner settings.PersistenceAdapter, client *redis.Client, ttl time.Duration, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}

	return &Cache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Load returns the cached bundle when present, otherwise falls through to
// the inner adapter and populates the cache. Cache failures degrade to the
// inner adapter; they are never surfaced.
func (c *Cache) Load(ctx context.Context, userID string) (*settings.StoredBundle, error) {
	if data, err := c.client.Get(ctx, cacheKey(userID)).Bytes(); err == nil {
		var stored settings.StoredBundle
		if err := json.Unmarshal(data, &stored); err == nil {
			return &stored, nil
		}
		// corrupt cache entry: drop it and fall through
		_ = c.client.Del(ctx, cacheKey(userID)).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("settings cache read failed", slog.String("user_id", userID), slog.Any("error", err))
	}

	stored, err := c.inner.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(stored); err == nil {
		if err := c.client.Set(ctx, cacheKey(userID), data, c.ttl).Err(); err != nil {
			c.log.Warn("settings cache write failed", slog.String("user_id", userID), slog.Any("error", err))
		}
	}

	return stored, nil
}

// SaveSection writes through and invalidates the cached bundle.
func (c *Cache) SaveSection(ctx context.Context, userID string, section settings.Section, payload []byte) error {
	if err := c.inner.SaveSection(ctx, userID, section, payload); err != nil {
		return err
	}
	return c.invalidate(ctx, userID)
}

// SaveAll writes through and invalidates the cached bundle.
func (c *Cache) SaveAll(ctx context.Context, userID string, bundle *settings.StoredBundle) error {
	if err := c.inner.SaveAll(ctx, userID, bundle); err != nil {
		return err
	}
	return c.invalidate(ctx, userID)
}

// Clear clears durable storage and the cached copy.
func (c *Cache) Clear(ctx context.Context, userID string) error {
	if err := c.inner.Clear(ctx, userID); err != nil {
		return err
	}
	return c.invalidate(ctx, userID)
}

func (c *Cache) invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		c.log.Warn("settings cache invalidation failed", slog.String("user_id", userID), slog.Any("error", err))
		return fmt.Errorf("invalidate settings cache: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return fmt.Sprintf("settings:cache:%s", userID)
}
