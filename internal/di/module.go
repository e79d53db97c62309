package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/shopmart/internal/adapter/cache"
	"github.com/polkiloo/shopmart/internal/adapter/events"
	"github.com/polkiloo/shopmart/internal/adapter/payment"
	"github.com/polkiloo/shopmart/internal/app"
	"github.com/polkiloo/shopmart/internal/config"
	"github.com/polkiloo/shopmart/internal/logger"
	"github.com/polkiloo/shopmart/internal/metrics"
	"github.com/polkiloo/shopmart/internal/pkg/auth"
	"github.com/polkiloo/shopmart/internal/server/http/handlers"
	"github.com/polkiloo/shopmart/internal/server/http/router"
	"github.com/polkiloo/shopmart/internal/storage/postgres"
	"github.com/polkiloo/shopmart/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		payment.Module,
		cache.Module,
		events.Module,
		fx.Provide(
			func(g payment.Gateway) usecase.PaymentGateway { return g },
			func(c cache.ProductCache) usecase.ProductCache { return c },
			func(p events.Publisher) usecase.EventPublisher { return p },
		),
		usecase.Module,
		app.Module,
		fx.Provide(
			func(f *app.ShopFacade) handlers.ShopFacade { return f },
			func(s *postgres.Storage) handlers.HealthChecker { return s },
		),
		router.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
