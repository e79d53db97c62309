package repository

import (
	"context"
	"time"

	"github.com/polkiloo/shopmart/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
//
// MarkPaid and Cancel run their stock mutations inside the same transaction
// as the status change, holding row locks on every touched product.
//
// BeginApproval marks a pending order as being approved by the gateway. While
// marked, DeletePending, Cancel and StalePending leave the order alone.
// AbortApproval clears the mark after the gateway refused the approval.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64, page model.PageRequest) (model.Page[model.Order], error)
	SetTransactionID(ctx context.Context, orderID int64, tid string) error
	BeginApproval(ctx context.Context, orderID int64) error
	AbortApproval(ctx context.Context, orderID int64) error
	MarkPaid(ctx context.Context, orderID int64) (*model.Order, error)
	Cancel(ctx context.Context, orderID int64) (*model.Order, error)
	DeletePending(ctx context.Context, orderID int64) error
	UpdateFulfillment(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error)
	StalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error)
}
