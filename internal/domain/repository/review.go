package repository

import (
	"context"

	"github.com/polkiloo/shopmart/internal/domain/model"
)

// ReviewRepository stores product reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) (*model.Review, error)
	Update(ctx context.Context, review *model.Review) (*model.Review, error)
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	ListByProduct(ctx context.Context, productID int64, page model.PageRequest) (model.Page[model.Review], error)
}
