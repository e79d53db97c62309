package test

import (
	"context"
	"sync"
	"time"

	"github.com/polkiloo/shopmart/internal/domain/model"
	pkgAuth "github.com/polkiloo/shopmart/internal/pkg/auth"
)

// ShopFacadeStub provides controllable behaviour for every HTTP endpoint.
// Unset functions return small fixed fixtures.
type ShopFacadeStub struct {
	RegisterFn       func(context.Context, model.Registration) (*model.User, error)
	VerifyFn         func(context.Context, string) error
	AuthenticateFn   func(context.Context, string, string) (string, error)
	ParseFn          func(string) (pkgAuth.Claims, error)
	ProfileFn        func(context.Context, int64) (*model.User, error)
	UpdateProfileFn  func(context.Context, int64, model.ProfileUpdate) (*model.User, error)
	ChangePasswordFn func(context.Context, int64, string, string) error

	ProductsFn      func(context.Context, model.ProductFilter, model.PageRequest) (model.Page[model.Product], error)
	PopularFn       func(context.Context) ([]model.PopularProduct, error)
	DetailFn        func(context.Context, int64, model.PageRequest) (*model.ProductDetail, error)
	CreateProductFn func(context.Context, *model.Product) (*model.Product, error)
	UpdateProductFn func(context.Context, *model.Product) (*model.Product, error)
	DeleteProductFn func(context.Context, int64) error
	AdjustStockFn   func(context.Context, int64, int) (int, error)

	CreateReviewFn func(context.Context, int64, int64, int, string) (*model.Review, error)
	UpdateReviewFn func(context.Context, int64, int64, int, string) (*model.Review, error)
	ReviewFn       func(context.Context, int64) (*model.Review, error)

	CartFn              func(context.Context, int64) ([]model.CartLine, error)
	AddToCartFn         func(context.Context, int64, int64, int) (*model.CartLine, error)
	ChangeCartLineFn    func(context.Context, int64, int64, string) (*model.CartLine, error)
	RemoveCartLineFn    func(context.Context, int64, int64) error
	RemoveCartProductFn func(context.Context, int64, int64) error
	ClearCartFn         func(context.Context, int64) error

	CheckoutFn     func(context.Context, int64, int64, int) (*model.Checkout, error)
	CheckoutCartFn func(context.Context, int64) (*model.Checkout, error)
	RetryFn        func(context.Context, int64, int64) (*model.Checkout, error)
	OrdersFn       func(context.Context, int64, model.PageRequest) (model.Page[model.Order], error)
	OrderFn        func(context.Context, int64, int64) (*model.Order, error)
	CancelOrderFn  func(context.Context, int64, int64) (*model.Order, error)
	AdvanceFn      func(context.Context, int64, model.OrderStatus) (*model.Order, error)

	ApproveFn       func(context.Context, int64, string) (*model.PaymentApproval, error)
	CancelPaymentFn func(context.Context, int64) error
}

func (s ShopFacadeStub) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, reg)
	}
	return &model.User{ID: 1, Username: reg.Username, Email: reg.Email, Role: model.RoleUser}, nil
}

func (s ShopFacadeStub) Verify(ctx context.Context, token string) error {
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, token)
	}
	return nil
}

func (s ShopFacadeStub) Authenticate(ctx context.Context, username, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, username, password)
	}
	return "token", nil
}

// ParseToken accepts any token as user 1 unless overridden.
func (s ShopFacadeStub) ParseToken(token string) (pkgAuth.Claims, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return pkgAuth.Claims{UserID: 1, Role: model.RoleUser}, nil
}

func (s ShopFacadeStub) Profile(ctx context.Context, userID int64) (*model.User, error) {
	if s.ProfileFn != nil {
		return s.ProfileFn(ctx, userID)
	}
	return &model.User{ID: userID, Username: "user", Role: model.RoleUser, Enabled: true}, nil
}

func (s ShopFacadeStub) UpdateProfile(ctx context.Context, userID int64, update model.ProfileUpdate) (*model.User, error) {
	if s.UpdateProfileFn != nil {
		return s.UpdateProfileFn(ctx, userID, update)
	}
	return &model.User{ID: userID}, nil
}

func (s ShopFacadeStub) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if s.ChangePasswordFn != nil {
		return s.ChangePasswordFn(ctx, userID, current, next)
	}
	return nil
}

func (s ShopFacadeStub) Products(ctx context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error) {
	if s.ProductsFn != nil {
		return s.ProductsFn(ctx, filter, page)
	}
	return model.NewPage([]model.Product{{ID: 1, Name: "Mouse", Price: 1000}}, model.PageRequest{Size: 8}, 1), nil
}

func (s ShopFacadeStub) PopularProducts(ctx context.Context) ([]model.PopularProduct, error) {
	if s.PopularFn != nil {
		return s.PopularFn(ctx)
	}
	return []model.PopularProduct{{Product: model.Product{ID: 1, Name: "Mouse"}, Sold: 3}}, nil
}

func (s ShopFacadeStub) ProductDetail(ctx context.Context, id int64, reviewPage model.PageRequest) (*model.ProductDetail, error) {
	if s.DetailFn != nil {
		return s.DetailFn(ctx, id, reviewPage)
	}
	return &model.ProductDetail{
		Product: model.Product{ID: id, Name: "Mouse"},
		Reviews: model.NewPage[model.Review](nil, model.PageRequest{Size: 5}, 0),
	}, nil
}

func (s ShopFacadeStub) CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if s.CreateProductFn != nil {
		return s.CreateProductFn(ctx, product)
	}
	created := *product
	created.ID = 1
	return &created, nil
}

func (s ShopFacadeStub) UpdateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if s.UpdateProductFn != nil {
		return s.UpdateProductFn(ctx, product)
	}
	return product, nil
}

func (s ShopFacadeStub) DeleteProduct(ctx context.Context, id int64) error {
	if s.DeleteProductFn != nil {
		return s.DeleteProductFn(ctx, id)
	}
	return nil
}

// AdjustStock reports a stock of 10+delta unless overridden.
func (s ShopFacadeStub) AdjustStock(ctx context.Context, productID int64, delta int) (int, error) {
	if s.AdjustStockFn != nil {
		return s.AdjustStockFn(ctx, productID, delta)
	}
	return 10 + delta, nil
}

func (s ShopFacadeStub) CreateReview(ctx context.Context, userID, productID int64, rating int, content string) (*model.Review, error) {
	if s.CreateReviewFn != nil {
		return s.CreateReviewFn(ctx, userID, productID, rating, content)
	}
	return &model.Review{ID: 1, UserID: userID, ProductID: productID, Rating: rating, Content: content}, nil
}

func (s ShopFacadeStub) UpdateReview(ctx context.Context, userID, reviewID int64, rating int, content string) (*model.Review, error) {
	if s.UpdateReviewFn != nil {
		return s.UpdateReviewFn(ctx, userID, reviewID, rating, content)
	}
	return &model.Review{ID: reviewID, UserID: userID, Rating: rating, Content: content}, nil
}

func (s ShopFacadeStub) Review(ctx context.Context, id int64) (*model.Review, error) {
	if s.ReviewFn != nil {
		return s.ReviewFn(ctx, id)
	}
	return &model.Review{ID: id, Rating: 5}, nil
}

func (s ShopFacadeStub) Cart(ctx context.Context, userID int64) ([]model.CartLine, error) {
	if s.CartFn != nil {
		return s.CartFn(ctx, userID)
	}
	return []model.CartLine{{ID: 1, UserID: userID, ProductID: 1, Quantity: 2, Price: 500}}, nil
}

func (s ShopFacadeStub) AddToCart(ctx context.Context, userID, productID int64, qty int) (*model.CartLine, error) {
	if s.AddToCartFn != nil {
		return s.AddToCartFn(ctx, userID, productID, qty)
	}
	return &model.CartLine{ID: 1, UserID: userID, ProductID: productID, Quantity: qty}, nil
}

func (s ShopFacadeStub) ChangeCartLine(ctx context.Context, userID, lineID int64, operation string) (*model.CartLine, error) {
	if s.ChangeCartLineFn != nil {
		return s.ChangeCartLineFn(ctx, userID, lineID, operation)
	}
	return &model.CartLine{ID: lineID, UserID: userID, Quantity: 1}, nil
}

func (s ShopFacadeStub) RemoveCartLine(ctx context.Context, userID, lineID int64) error {
	if s.RemoveCartLineFn != nil {
		return s.RemoveCartLineFn(ctx, userID, lineID)
	}
	return nil
}

func (s ShopFacadeStub) RemoveCartProduct(ctx context.Context, userID, productID int64) error {
	if s.RemoveCartProductFn != nil {
		return s.RemoveCartProductFn(ctx, userID, productID)
	}
	return nil
}

func (s ShopFacadeStub) ClearCart(ctx context.Context, userID int64) error {
	if s.ClearCartFn != nil {
		return s.ClearCartFn(ctx, userID)
	}
	return nil
}

func (s ShopFacadeStub) Checkout(ctx context.Context, userID, productID int64, qty int) (*model.Checkout, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, userID, productID, qty)
	}
	return stubCheckout(userID), nil
}

func (s ShopFacadeStub) CheckoutCart(ctx context.Context, userID int64) (*model.Checkout, error) {
	if s.CheckoutCartFn != nil {
		return s.CheckoutCartFn(ctx, userID)
	}
	return stubCheckout(userID), nil
}

func (s ShopFacadeStub) RetryPayment(ctx context.Context, userID, orderID int64) (*model.Checkout, error) {
	if s.RetryFn != nil {
		return s.RetryFn(ctx, userID, orderID)
	}
	return stubCheckout(userID), nil
}

func (s ShopFacadeStub) Orders(ctx context.Context, userID int64, page model.PageRequest) (model.Page[model.Order], error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, userID, page)
	}
	return model.NewPage([]model.Order{{ID: 1, UserID: userID, Status: model.OrderStatusPaid}}, model.PageRequest{Size: 10}, 1), nil
}

func (s ShopFacadeStub) Order(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusPending}, nil
}

func (s ShopFacadeStub) CancelOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	if s.CancelOrderFn != nil {
		return s.CancelOrderFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusCancelled}, nil
}

func (s ShopFacadeStub) AdvanceOrder(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	if s.AdvanceFn != nil {
		return s.AdvanceFn(ctx, orderID, status)
	}
	return &model.Order{ID: orderID, Status: status}, nil
}

func (s ShopFacadeStub) ApprovePayment(ctx context.Context, orderID int64, pgToken string) (*model.PaymentApproval, error) {
	if s.ApproveFn != nil {
		return s.ApproveFn(ctx, orderID, pgToken)
	}
	return &model.PaymentApproval{AID: "A1", TID: "T1", Amount: model.PaymentAmount{Total: 1000}}, nil
}

func (s ShopFacadeStub) CancelPayment(ctx context.Context, orderID int64) error {
	if s.CancelPaymentFn != nil {
		return s.CancelPaymentFn(ctx, orderID)
	}
	return nil
}

func stubCheckout(userID int64) *model.Checkout {
	return &model.Checkout{
		Order: &model.Order{ID: 1, UserID: userID, Status: model.OrderStatusPending, TotalPrice: 1000},
		Payment: &model.PaymentReady{
			TID:               "T1",
			NextRedirectPCURL: "https://pay.example/pc/T1",
		},
	}
}

// HealthCheckerStub reports a fixed health result.
type HealthCheckerStub struct {
	Err error
}

func (s HealthCheckerStub) HealthCheck(context.Context) error {
	return s.Err
}

// SweeperStub mimics the order use case as seen by the pending order sweeper.
type SweeperStub struct {
	Batches   [][]model.Order
	StaleErr  error
	CancelErr map[int64]error

	mu        sync.Mutex
	calls     int
	cancelled []int64
	maxAges   []time.Duration
}

// StalePendingOrders returns queued batches one per call, then nothing.
func (s *SweeperStub) StalePendingOrders(ctx context.Context, olderThan time.Duration, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxAges = append(s.maxAges, olderThan)
	if s.StaleErr != nil {
		return nil, s.StaleErr
	}
	s.calls++
	if s.calls <= len(s.Batches) {
		batch := s.Batches[s.calls-1]
		if len(batch) > limit {
			batch = batch[:limit]
		}
		return batch, nil
	}
	return nil, nil
}

// CancelPendingPayment records the order id unless CancelErr has an entry for
// it. Like a database call it fails on a cancelled ctx.
func (s *SweeperStub) CancelPendingPayment(ctx context.Context, orderID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.CancelErr[orderID]; ok {
		return err
	}
	s.cancelled = append(s.cancelled, orderID)
	return nil
}

// Cancelled returns a copy of the ids cancelled so far.
func (s *SweeperStub) Cancelled() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.cancelled...)
}

// StaleCalls returns how many times stale orders were listed.
func (s *SweeperStub) StaleCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.maxAges)
}

// MaxAges returns the olderThan argument of every listing.
func (s *SweeperStub) MaxAges() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.maxAges...)
}
