package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polkiloo/shopmart/internal/domain/model"
)

// ProductCache keeps recently read products close to the API.
// Failures are logged and treated as misses.
type ProductCache interface {
	Get(ctx context.Context, id int64) (*model.Product, bool)
	Set(ctx context.Context, product *model.Product)
	Invalidate(ctx context.Context, ids ...int64)
}

// redisClient is the subset of *redis.Client used by the cache.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisProductCache stores products as JSON under product:<id>.
type RedisProductCache struct {
	client redisClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisProductCache wraps a redis client.
func NewRedisProductCache(client redisClient, ttl time.Duration, logger *slog.Logger) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl, logger: logger}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *RedisProductCache) Get(ctx context.Context, id int64) (*model.Product, bool) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("product cache get failed", slog.Int64("product_id", id), slog.String("error", err.Error()))
		}
		return nil, false
	}
	var product model.Product
	if err := json.Unmarshal(data, &product); err != nil {
		c.logger.Warn("product cache entry corrupt", slog.Int64("product_id", id), slog.String("error", err.Error()))
		return nil, false
	}
	return &product, true
}

func (c *RedisProductCache) Set(ctx context.Context, product *model.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKey(product.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("product cache set failed", slog.Int64("product_id", product.ID), slog.String("error", err.Error()))
	}
}

func (c *RedisProductCache) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("product cache invalidate failed", slog.Any("product_ids", ids), slog.String("error", err.Error()))
	}
}

// NopProductCache is used when no redis address is configured.
type NopProductCache struct{}

func (NopProductCache) Get(context.Context, int64) (*model.Product, bool) { return nil, false }
func (NopProductCache) Set(context.Context, *model.Product)               {}
func (NopProductCache) Invalidate(context.Context, ...int64)              {}
