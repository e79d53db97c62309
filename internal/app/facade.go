package app

import (
	"context"

	"github.com/polkiloo/shopmart/internal/domain/model"
	pkgAuth "github.com/polkiloo/shopmart/internal/pkg/auth"
	"github.com/polkiloo/shopmart/internal/usecase"
)

// ShopFacade combines the use cases behind the HTTP API.
type ShopFacade struct {
	auth    *usecase.AuthUseCase
	catalog *usecase.CatalogUseCase
	reviews *usecase.ReviewUseCase
	cart    *usecase.CartUseCase
	orders  *usecase.OrderUseCase
}

func NewShopFacade(auth *usecase.AuthUseCase, catalog *usecase.CatalogUseCase, reviews *usecase.ReviewUseCase, cart *usecase.CartUseCase, orders *usecase.OrderUseCase) *ShopFacade {
	return &ShopFacade{auth: auth, catalog: catalog, reviews: reviews, cart: cart, orders: orders}
}

func (f *ShopFacade) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	return f.auth.Register(ctx, reg)
}

func (f *ShopFacade) Verify(ctx context.Context, token string) error {
	return f.auth.Verify(ctx, token)
}

func (f *ShopFacade) Authenticate(ctx context.Context, username, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, username, password)
	return token, err
}

func (f *ShopFacade) ParseToken(token string) (pkgAuth.Claims, error) {
	return f.auth.ParseToken(token)
}

func (f *ShopFacade) Profile(ctx context.Context, userID int64) (*model.User, error) {
	return f.auth.Profile(ctx, userID)
}

func (f *ShopFacade) UpdateProfile(ctx context.Context, userID int64, update model.ProfileUpdate) (*model.User, error) {
	return f.auth.UpdateProfile(ctx, userID, update)
}

func (f *ShopFacade) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	return f.auth.ChangePassword(ctx, userID, current, next)
}

func (f *ShopFacade) Products(ctx context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error) {
	return f.catalog.ListProducts(ctx, filter, page)
}

func (f *ShopFacade) PopularProducts(ctx context.Context) ([]model.PopularProduct, error) {
	return f.catalog.PopularProducts(ctx)
}

func (f *ShopFacade) ProductDetail(ctx context.Context, id int64, reviewPage model.PageRequest) (*model.ProductDetail, error) {
	return f.catalog.ProductDetail(ctx, id, reviewPage)
}

func (f *ShopFacade) CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	return f.catalog.CreateProduct(ctx, product)
}

func (f *ShopFacade) UpdateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	return f.catalog.UpdateProduct(ctx, product)
}

func (f *ShopFacade) DeleteProduct(ctx context.Context, id int64) error {
	return f.catalog.DeleteProduct(ctx, id)
}

func (f *ShopFacade) AdjustStock(ctx context.Context, productID int64, delta int) (int, error) {
	return f.catalog.AdjustStock(ctx, productID, delta)
}

func (f *ShopFacade) CreateReview(ctx context.Context, userID, productID int64, rating int, content string) (*model.Review, error) {
	return f.reviews.CreateReview(ctx, userID, productID, rating, content)
}

func (f *ShopFacade) UpdateReview(ctx context.Context, userID, reviewID int64, rating int, content string) (*model.Review, error) {
	return f.reviews.UpdateReview(ctx, userID, reviewID, rating, content)
}

func (f *ShopFacade) Review(ctx context.Context, id int64) (*model.Review, error) {
	return f.reviews.GetReview(ctx, id)
}

func (f *ShopFacade) Cart(ctx context.Context, userID int64) ([]model.CartLine, error) {
	return f.cart.Lines(ctx, userID)
}

func (f *ShopFacade) AddToCart(ctx context.Context, userID, productID int64, qty int) (*model.CartLine, error) {
	return f.cart.Add(ctx, userID, productID, qty)
}

func (f *ShopFacade) ChangeCartLine(ctx context.Context, userID, lineID int64, operation string) (*model.CartLine, error) {
	return f.cart.ChangeQuantity(ctx, userID, lineID, operation)
}

func (f *ShopFacade) RemoveCartLine(ctx context.Context, userID, lineID int64) error {
	return f.cart.Remove(ctx, userID, lineID)
}

func (f *ShopFacade) RemoveCartProduct(ctx context.Context, userID, productID int64) error {
	return f.cart.RemoveProduct(ctx, userID, productID)
}

func (f *ShopFacade) ClearCart(ctx context.Context, userID int64) error {
	return f.cart.Clear(ctx, userID)
}

// Checkout creates a pending order for one product and starts its payment.
// When the gateway call fails the order stays pending without a transaction id
// and can be retried with RetryPayment.
func (f *ShopFacade) Checkout(ctx context.Context, userID, productID int64, qty int) (*model.Checkout, error) {
	order, err := f.orders.CreatePendingOrder(ctx, userID, productID, qty)
	if err != nil {
		return nil, err
	}
	return f.ready(ctx, userID, order)
}

// CheckoutCart creates a pending order from the whole cart and starts its payment.
func (f *ShopFacade) CheckoutCart(ctx context.Context, userID int64) (*model.Checkout, error) {
	order, err := f.orders.CreatePendingOrderFromCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return f.ready(ctx, userID, order)
}

func (f *ShopFacade) RetryPayment(ctx context.Context, userID, orderID int64) (*model.Checkout, error) {
	order, err := f.orders.GetOrderForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return f.ready(ctx, userID, order)
}

func (f *ShopFacade) ready(ctx context.Context, userID int64, order *model.Order) (*model.Checkout, error) {
	payment, err := f.orders.ReadyPayment(ctx, userID, order)
	if err != nil {
		return nil, err
	}
	return &model.Checkout{Order: order, Payment: payment}, nil
}

func (f *ShopFacade) Orders(ctx context.Context, userID int64, page model.PageRequest) (model.Page[model.Order], error) {
	return f.orders.ListOrdersByUser(ctx, userID, page)
}

func (f *ShopFacade) Order(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	return f.orders.GetOrderForUser(ctx, userID, orderID)
}

func (f *ShopFacade) CancelOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	return f.orders.CancelOrderForUser(ctx, userID, orderID)
}

func (f *ShopFacade) AdvanceOrder(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	return f.orders.AdvanceFulfillment(ctx, orderID, status)
}

func (f *ShopFacade) ApprovePayment(ctx context.Context, orderID int64, pgToken string) (*model.PaymentApproval, error) {
	return f.orders.ApprovePayment(ctx, orderID, pgToken)
}

func (f *ShopFacade) CancelPayment(ctx context.Context, orderID int64) error {
	return f.orders.CancelPendingPayment(ctx, orderID)
}
