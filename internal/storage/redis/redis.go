package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrCacheMiss = errors.New("key not found")

// Cache holds list pages and request counters.
type Cache struct {
	client  *redis.Client
	pageTTL time.Duration
	logger  *zap.Logger
}

func New(addr, password string, db int, pageTTL time.Duration, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("connected to redis", zap.String("addr", addr), zap.Int("db", db))

	return NewWithClient(client, pageTTL, logger), nil
}

// NewWithClient wraps an existing client without a connectivity check.
func NewWithClient(client *redis.Client, pageTTL time.Duration, logger *zap.Logger) *Cache {
	if pageTTL <= 0 {
		pageTTL = DefaultPageCacheTTL
	}
	return &Cache{
		client:  client,
		pageTTL: pageTTL,
		logger:  logger,
	}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Error("failed to write cache entry",
			zap.String("key", key),
			zap.Duration("ttl", ttl),
			zap.Error(err),
		)
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}

func (c *Cache) getJSON(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return nil
}

// version reads the page generation; a missing key is generation zero.
func (c *Cache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, PageVersionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get page version: %w", err)
	}
	return v, nil
}

func (c *Cache) bumpVersion(ctx context.Context) (int64, error) {
	v, err := c.client.Incr(ctx, PageVersionKey()).Result()
	if err != nil {
		c.logger.Error("failed to bump page version", zap.Error(err))
		return 0, fmt.Errorf("incr page version: %w", err)
	}
	return v, nil
}

// countInWindow increments key and starts its window when the key is new.
func (c *Cache) countInWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("failed to count request",
			zap.String("key", key),
			zap.Error(err),
		)
		return 0, fmt.Errorf("count %s: %w", key, err)
	}

	return incr.Val(), nil
}
