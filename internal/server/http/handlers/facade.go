package handlers

import (
	"context"

	"github.com/polkiloo/shopmart/internal/domain/model"
	pkgAuth "github.com/polkiloo/shopmart/internal/pkg/auth"
)

// AuthFacade describes account operations required by HTTP handlers.
type AuthFacade interface {
	Register(ctx context.Context, reg model.Registration) (*model.User, error)
	Verify(ctx context.Context, token string) error
	Authenticate(ctx context.Context, username, password string) (string, error)
	ParseToken(token string) (pkgAuth.Claims, error)
	Profile(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, update model.ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, current, next string) error
}

// CatalogFacade describes product browsing and administration.
type CatalogFacade interface {
	Products(ctx context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error)
	PopularProducts(ctx context.Context) ([]model.PopularProduct, error)
	ProductDetail(ctx context.Context, id int64, reviewPage model.PageRequest) (*model.ProductDetail, error)
	CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, productID int64, delta int) (int, error)
}

// ReviewFacade describes review endpoints.
type ReviewFacade interface {
	CreateReview(ctx context.Context, userID, productID int64, rating int, content string) (*model.Review, error)
	UpdateReview(ctx context.Context, userID, reviewID int64, rating int, content string) (*model.Review, error)
	Review(ctx context.Context, id int64) (*model.Review, error)
}

// CartFacade describes cart endpoints.
type CartFacade interface {
	Cart(ctx context.Context, userID int64) ([]model.CartLine, error)
	AddToCart(ctx context.Context, userID, productID int64, qty int) (*model.CartLine, error)
	ChangeCartLine(ctx context.Context, userID, lineID int64, operation string) (*model.CartLine, error)
	RemoveCartLine(ctx context.Context, userID, lineID int64) error
	RemoveCartProduct(ctx context.Context, userID, productID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

// OrderFacade describes checkout and order history endpoints.
type OrderFacade interface {
	Checkout(ctx context.Context, userID, productID int64, qty int) (*model.Checkout, error)
	CheckoutCart(ctx context.Context, userID int64) (*model.Checkout, error)
	RetryPayment(ctx context.Context, userID, orderID int64) (*model.Checkout, error)
	Orders(ctx context.Context, userID int64, page model.PageRequest) (model.Page[model.Order], error)
	Order(ctx context.Context, userID, orderID int64) (*model.Order, error)
	CancelOrder(ctx context.Context, userID, orderID int64) (*model.Order, error)
	AdvanceOrder(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error)
}

// PaymentFacade handles redirects coming back from the payment provider.
type PaymentFacade interface {
	ApprovePayment(ctx context.Context, orderID int64, pgToken string) (*model.PaymentApproval, error)
	CancelPayment(ctx context.Context, orderID int64) error
}

// ShopFacade is everything the router needs from the application layer.
type ShopFacade interface {
	AuthFacade
	CatalogFacade
	ReviewFacade
	CartFacade
	OrderFacade
	PaymentFacade
}

// HealthChecker reports readiness of backing services.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
