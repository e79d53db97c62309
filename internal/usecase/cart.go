package usecase

import (
	"context"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/domain/repository"
)

// Cart line operations accepted by ChangeQuantity.
const (
	CartIncrease = "increase"
	CartDecrease = "decrease"
)

// CartUseCase manages the per-user shopping cart.
type CartUseCase struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

// NewCartUseCase constructs CartUseCase.
func NewCartUseCase(carts repository.CartRepository, products repository.ProductRepository) *CartUseCase {
	return &CartUseCase{carts: carts, products: products}
}

func (u *CartUseCase) Lines(ctx context.Context, userID int64) ([]model.CartLine, error) {
	return u.carts.ListByUser(ctx, userID)
}

// Add puts qty units of a product into the cart, merging with an existing line.
func (u *CartUseCase) Add(ctx context.Context, userID, productID int64, qty int) (*model.CartLine, error) {
	if qty < 1 {
		return nil, domainErrors.ErrInvalidInput
	}
	if _, err := u.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return u.carts.AddLine(ctx, userID, productID, qty)
}

// ChangeQuantity moves a line up or down by one unit.
func (u *CartUseCase) ChangeQuantity(ctx context.Context, userID, lineID int64, operation string) (*model.CartLine, error) {
	var delta int
	switch operation {
	case CartIncrease:
		delta = 1
	case CartDecrease:
		delta = -1
	default:
		return nil, domainErrors.ErrInvalidInput
	}
	return u.carts.UpdateLine(ctx, userID, lineID, delta)
}

func (u *CartUseCase) Remove(ctx context.Context, userID, lineID int64) error {
	return u.carts.RemoveLine(ctx, userID, lineID)
}

func (u *CartUseCase) RemoveProduct(ctx context.Context, userID, productID int64) error {
	return u.carts.RemoveProduct(ctx, userID, productID)
}

func (u *CartUseCase) Clear(ctx context.Context, userID int64) error {
	return u.carts.ClearForUser(ctx, userID)
}
