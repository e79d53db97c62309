package cache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/shopmart/internal/config"
)

// Module provides the product cache, backed by redis when configured.
var Module = fx.Provide(newProductCache)

type cacheParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newProductCache(p cacheParams) ProductCache {
	if p.Config.RedisAddr == "" {
		p.Logger.Info("product cache disabled")
		return NopProductCache{}
	}

	client := redis.NewClient(&redis.Options{Addr: p.Config.RedisAddr})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				p.Logger.Warn("redis unreachable, cache lookups will miss", slog.String("error", err.Error()))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisProductCache(client, p.Config.ProductCacheTTL, p.Logger)
}
