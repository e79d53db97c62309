package usecase

import (
	"context"

	"github.com/polkiloo/shopmart/internal/domain/model"
)

// PaymentGateway runs the two step ready/approve payment protocol.
type PaymentGateway interface {
	Ready(ctx context.Context, req model.PaymentReadyRequest) (*model.PaymentReady, error)
	Approve(ctx context.Context, req model.PaymentApproveRequest) (*model.PaymentApproval, error)
}

// ProductCache is a best effort read-through cache for catalog lookups.
type ProductCache interface {
	Get(ctx context.Context, id int64) (*model.Product, bool)
	Set(ctx context.Context, product *model.Product)
	Invalidate(ctx context.Context, ids ...int64)
}

// EventPublisher emits domain events for other services.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event model.OrderEvent) error
	PublishUserEvent(ctx context.Context, event model.UserEvent) error
}
