// Package rediscache keeps built dashboards in redis. All dashboards of a user
// live in one hash so a single DEL drops them after a write. A per-user
// counter holds the generation that writes advance.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"healthdash/internal/app"

	"github.com/go-redis/redis/v8"
)

const (
	keyPrefix = "healthdash::dashboards::"
	genPrefix = "healthdash::dashboards-gen::"
)

var _ app.DashboardCache = (*Cache)(nil)

type Cache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// New returns a cache whose per-user hashes expire ttl after the last write.
func New(redisClient *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func userKey(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}

func genKey(userID int64) string {
	return fmt.Sprintf("%s%d", genPrefix, userID)
}

// Generation returns the user's current generation, 0 before the first write.
func (c *Cache) Generation(ctx context.Context, userID int64) (int64, error) {
	gen, err := c.redisClient.Get(ctx, genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	return gen, nil
}

func (c *Cache) Get(ctx context.Context, userID int64, key string) (*app.Dashboard, bool, error) {
	cmd := c.redisClient.HGet(ctx, userKey(userID), key)
	raw, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("hget: %w", err)
	}

	var d app.Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, false, fmt.Errorf("unmarshal dashboard: %w", err)
	}
	return &d, true, nil
}

func (c *Cache) Set(ctx context.Context, userID int64, key string, d *app.Dashboard) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal dashboard: %w", err)
	}

	hkey := userKey(userID)
	if err := c.redisClient.HSet(ctx, hkey, key, string(raw)).Err(); err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	if c.ttl > 0 {
		if err := c.redisClient.Expire(ctx, hkey, c.ttl).Err(); err != nil {
			return fmt.Errorf("expire: %w", err)
		}
	}
	return nil
}

// Invalidate advances the user's generation and drops every cached dashboard.
// The generation key never expires so it cannot move backwards.
func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.redisClient.Incr(ctx, genKey(userID)).Err(); err != nil {
		return fmt.Errorf("incr generation: %w", err)
	}
	if err := c.redisClient.Del(ctx, userKey(userID)).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

// Ping checks the redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.redisClient.Ping(ctx).Err()
}
