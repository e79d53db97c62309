package repository

import (
	"context"
	"time"

	"github.com/polkiloo/shopmart/internal/domain/model"
)

// ProductRepository manages the product catalog.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error)
	Popular(ctx context.Context, since time.Time, limit int) ([]model.PopularProduct, error)
}

// InventoryLedger mutates product stock under an exclusive row lock.
type InventoryLedger interface {
	Decrement(ctx context.Context, productID int64, qty int) error
	Increment(ctx context.Context, productID int64, qty int) error
	Stock(ctx context.Context, productID int64) (int, error)
}
