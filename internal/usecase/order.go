package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/domain/repository"
	"github.com/polkiloo/shopmart/internal/metrics"
)

const defaultOrderPageSize = 10

// OrderOptions carries merchant settings for the payment round trip.
type OrderOptions struct {
	// CID is the merchant id sent with every gateway request.
	CID string
	// CallbackBaseURL is the public address the gateway redirects the buyer to.
	CallbackBaseURL string
}

// OrderUseCase drives an order from creation through payment to fulfillment.
type OrderUseCase struct {
	users    repository.UserRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	orders   repository.OrderRepository
	gateway  PaymentGateway
	cache    ProductCache
	events   EventPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	opts     OrderOptions
	now      func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(repos repository.Factory, gateway PaymentGateway, cache ProductCache, events EventPublisher,
	m *metrics.Metrics, logger *slog.Logger, opts OrderOptions) *OrderUseCase {
	opts.CallbackBaseURL = strings.TrimRight(opts.CallbackBaseURL, "/")
	return &OrderUseCase{
		users:    repos.Users(),
		products: repos.Products(),
		carts:    repos.Carts(),
		orders:   repos.Orders(),
		gateway:  gateway,
		cache:    cache,
		events:   events,
		metrics:  m,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// CreatePendingOrder records a single product purchase. Stock is checked but
// not reserved; it is only taken when the payment is approved.
func (u *OrderUseCase) CreatePendingOrder(ctx context.Context, userID, productID int64, quantity int) (*model.Order, error) {
	if quantity < 1 || quantity > model.MaxCartLineQuantity {
		return nil, domainErrors.ErrInvalidInput
	}

	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	product, err := u.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, domainErrors.ErrInsufficientStock
	}

	lines := []model.OrderLine{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
	}}
	return u.create(ctx, user, model.OrderSourceDirect, lines)
}

// CreatePendingOrderFromCart turns the whole cart into one order. The cart
// is left intact until the payment is approved.
func (u *OrderUseCase) CreatePendingOrderFromCart(ctx context.Context, userID int64) (*model.Order, error) {
	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart, err := u.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, domainErrors.ErrEmptyCart
	}

	lines := make([]model.OrderLine, 0, len(cart))
	for _, item := range cart {
		if item.Stock < item.Quantity {
			return nil, domainErrors.ErrInsufficientStock
		}
		lines = append(lines, model.OrderLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
		})
	}
	return u.create(ctx, user, model.OrderSourceCart, lines)
}

func (u *OrderUseCase) create(ctx context.Context, user *model.User, source model.OrderSource, lines []model.OrderLine) (*model.Order, error) {
	order, err := u.orders.Create(ctx, &model.Order{
		UserID:     user.ID,
		Address:    user.Address,
		Status:     model.OrderStatusPending,
		Source:     source,
		TotalPrice: model.ComputeTotal(lines),
		Lines:      lines,
	})
	if err != nil {
		return nil, err
	}
	u.metrics.OrderEvent("created")
	return order, nil
}

// ReadyPayment registers the order with the gateway and stores the returned
// transaction id. A failed call leaves the order untouched so it can be retried.
func (u *OrderUseCase) ReadyPayment(ctx context.Context, userID int64, order *model.Order) (*model.PaymentReady, error) {
	if order.UserID != userID {
		return nil, domainErrors.ErrForbidden
	}
	switch {
	case order.Status == model.OrderStatusPaid:
		return nil, domainErrors.ErrAlreadyPaid
	case order.Status != model.OrderStatusPending, order.TransactionID != "":
		return nil, domainErrors.ErrInvalidTransition
	}

	req := model.PaymentReadyRequest{
		CID:            u.opts.CID,
		PartnerOrderID: strconv.FormatInt(order.ID, 10),
		PartnerUserID:  strconv.FormatInt(userID, 10),
		ItemName:       itemName(order.Lines),
		Quantity:       order.Quantity(),
		TotalAmount:    order.TotalPrice,
		TaxFreeAmount:  0,
		ApprovalURL:    u.callbackURL("success", order.ID),
		CancelURL:      u.callbackURL("cancel", order.ID),
		FailURL:        u.callbackURL("fail", order.ID),
	}

	started := time.Now()
	ready, err := u.gateway.Ready(ctx, req)
	u.metrics.PaymentRequest("ready", err, time.Since(started))
	if err != nil {
		u.logger.Error("payment ready failed", slog.Int64("order_id", order.ID), slog.String("error", err.Error()))
		return nil, err
	}

	if err := u.orders.SetTransactionID(ctx, order.ID, ready.TID); err != nil {
		return nil, err
	}
	order.TransactionID = ready.TID
	u.metrics.OrderEvent("payment_ready")
	return ready, nil
}

// ApprovePayment confirms the payment with the gateway and then marks the
// order paid, taking its lines out of stock in one transaction.
func (u *OrderUseCase) ApprovePayment(ctx context.Context, orderID int64, pgToken string) (*model.PaymentApproval, error) {
	if strings.TrimSpace(pgToken) == "" {
		return nil, domainErrors.ErrInvalidInput
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case order.Status == model.OrderStatusPaid:
		return nil, domainErrors.ErrAlreadyPaid
	case order.Status != model.OrderStatusPending, order.TransactionID == "":
		return nil, domainErrors.ErrInvalidTransition
	}

	req := model.PaymentApproveRequest{
		CID:            u.opts.CID,
		TID:            order.TransactionID,
		PartnerOrderID: strconv.FormatInt(order.ID, 10),
		PartnerUserID:  strconv.FormatInt(order.UserID, 10),
		PGToken:        pgToken,
	}

	// From here on the sweeper and the cancel callback leave the order alone.
	if err := u.orders.BeginApproval(ctx, order.ID); err != nil {
		return nil, err
	}

	started := time.Now()
	approval, err := u.gateway.Approve(ctx, req)
	u.metrics.PaymentRequest("approve", err, time.Since(started))
	if err != nil {
		u.logger.Error("payment approve failed", slog.Int64("order_id", order.ID), slog.String("error", err.Error()))
		if abortErr := u.orders.AbortApproval(context.WithoutCancel(ctx), order.ID); abortErr != nil {
			u.logger.Error("clear approval mark failed", slog.Int64("order_id", order.ID), slog.String("error", abortErr.Error()))
		}
		return nil, err
	}

	paid, err := u.orders.MarkPaid(context.WithoutCancel(ctx), order.ID)
	if err != nil {
		// The buyer has been charged but the order could not be settled.
		if errors.Is(err, domainErrors.ErrInsufficientStock) {
			u.metrics.StockConflict()
		}
		u.logger.Error("payment approved but order not settled",
			slog.Int64("order_id", order.ID),
			slog.String("tid", order.TransactionID),
			slog.String("aid", approval.AID),
			slog.String("error", err.Error()),
		)
		u.publish(context.WithoutCancel(ctx), orderEvent(model.EventReconcileRequired, order, approval.AID, err.Error()))
		return nil, err
	}

	u.cache.Invalidate(ctx, productIDs(paid.Lines)...)
	u.metrics.OrderEvent("paid")
	u.publish(ctx, orderEvent(model.EventOrderPaid, paid, approval.AID, ""))
	return approval, nil
}

// CancelPendingPayment drops an unpaid order after the buyer cancelled or the
// gateway reported a failure. Paid orders are never deleted.
func (u *OrderUseCase) CancelPendingPayment(ctx context.Context, orderID int64) error {
	if err := u.orders.DeletePending(ctx, orderID); err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyPaid) {
			return domainErrors.ErrInvalidTransition
		}
		return err
	}
	u.metrics.OrderEvent("abandoned")
	return nil
}

// CancelOrder cancels a pending or paid order. Paid orders get their stock back.
func (u *OrderUseCase) CancelOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := u.orders.Cancel(ctx, orderID)
	if err != nil {
		return nil, err
	}
	u.cache.Invalidate(ctx, productIDs(order.Lines)...)
	u.metrics.OrderEvent("cancelled")
	u.publish(ctx, orderEvent(model.EventOrderCancelled, order, "", ""))
	return order, nil
}

// CancelOrderForUser cancels an order after checking its owner.
func (u *OrderUseCase) CancelOrderForUser(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	if _, err := u.GetOrderForUser(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return u.CancelOrder(ctx, orderID)
}

func (u *OrderUseCase) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	return u.orders.GetByID(ctx, orderID)
}

// GetOrderForUser returns the order only to its owner.
func (u *OrderUseCase) GetOrderForUser(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domainErrors.ErrForbidden
	}
	return order, nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (u *OrderUseCase) ListOrdersByUser(ctx context.Context, userID int64, page model.PageRequest) (model.Page[model.Order], error) {
	return u.orders.ListByUser(ctx, userID, page.Normalize(defaultOrderPageSize, maxPageSize))
}

// AdvanceFulfillment moves a paid order to SHIPPED and then DELIVERED.
func (u *OrderUseCase) AdvanceFulfillment(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	if status != model.OrderStatusShipped && status != model.OrderStatusDelivered {
		return nil, domainErrors.ErrInvalidInput
	}
	order, err := u.orders.UpdateFulfillment(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	u.metrics.OrderEvent(strings.ToLower(string(status)))
	return order, nil
}

// StalePendingOrders lists unpaid orders created more than olderThan ago.
func (u *OrderUseCase) StalePendingOrders(ctx context.Context, olderThan time.Duration, limit int) ([]model.Order, error) {
	return u.orders.StalePending(ctx, u.now().Add(-olderThan), limit)
}

func (u *OrderUseCase) callbackURL(result string, orderID int64) string {
	return fmt.Sprintf("%s/api/payment/%s?orderId=%d", u.opts.CallbackBaseURL, result, orderID)
}

func (u *OrderUseCase) publish(ctx context.Context, event model.OrderEvent) {
	if err := u.events.PublishOrderEvent(ctx, event); err != nil {
		u.logger.Warn("publish order event failed",
			slog.String("type", string(event.Type)),
			slog.Int64("order_id", event.OrderID),
			slog.String("error", err.Error()),
		)
	}
}

func orderEvent(t model.EventType, order *model.Order, aid, reason string) model.OrderEvent {
	return model.OrderEvent{
		Type:          t,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		TransactionID: order.TransactionID,
		ApprovalID:    aid,
		TotalPrice:    order.TotalPrice,
		Reason:        reason,
	}
}

// itemName is the first product name, followed by a count of the others.
func itemName(lines []model.OrderLine) string {
	if len(lines) == 0 {
		return ""
	}
	if len(lines) == 1 {
		return lines[0].ProductName
	}
	return fmt.Sprintf("%s and %d more", lines[0].ProductName, len(lines)-1)
}

func productIDs(lines []model.OrderLine) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
