package repository

import (
	"context"

	"github.com/polkiloo/shopmart/internal/domain/model"
)

// CartRepository stores per-user cart lines.
type CartRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]model.CartLine, error)
	AddLine(ctx context.Context, userID, productID int64, qty int) (*model.CartLine, error)
	UpdateLine(ctx context.Context, userID, lineID int64, delta int) (*model.CartLine, error)
	RemoveLine(ctx context.Context, userID, lineID int64) error
	RemoveProduct(ctx context.Context, userID, productID int64) error
	ClearForUser(ctx context.Context, userID int64) error
}
