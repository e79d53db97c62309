package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/shopmart/internal/config"
	"github.com/polkiloo/shopmart/internal/domain/repository"
	"github.com/polkiloo/shopmart/internal/metrics"
	pkgAuth "github.com/polkiloo/shopmart/internal/pkg/auth"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	newAuthUseCase,
	NewCatalogUseCase,
	NewReviewUseCase,
	NewCartUseCase,
	newOrderUseCase,
)

type authParams struct {
	fx.In

	Users  repository.UserRepository
	Hasher pkgAuth.PasswordHasher
	Tokens pkgAuth.Strategy
	Events EventPublisher
	Config *config.Config
	Logger *slog.Logger
}

func newAuthUseCase(p authParams) *AuthUseCase {
	return NewAuthUseCase(p.Users, p.Hasher, p.Tokens, p.Events, p.Config.VerifyBaseURL, p.Logger)
}

type orderParams struct {
	fx.In

	Repos   repository.Factory
	Gateway PaymentGateway
	Cache   ProductCache
	Events  EventPublisher
	Metrics *metrics.Metrics
	Config  *config.Config
	Logger  *slog.Logger
}

func newOrderUseCase(p orderParams) *OrderUseCase {
	return NewOrderUseCase(p.Repos, p.Gateway, p.Cache, p.Events, p.Metrics, p.Logger, OrderOptions{
		CID:             p.Config.PaymentCID,
		CallbackBaseURL: p.Config.CallbackBaseURL,
	})
}
