package usecase

import (
	"context"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/domain/repository"
	"github.com/polkiloo/shopmart/internal/metrics"
)

const (
	defaultProductPageSize = 8
	defaultReviewPageSize  = 5
	maxPageSize            = 100

	popularWindow = 30 * 24 * time.Hour
	popularLimit  = 3
)

// CatalogUseCase serves product listings and catalog administration.
type CatalogUseCase struct {
	products  repository.ProductRepository
	inventory repository.InventoryLedger
	reviews   repository.ReviewRepository
	cache     ProductCache
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewCatalogUseCase constructs CatalogUseCase.
func NewCatalogUseCase(products repository.ProductRepository, inventory repository.InventoryLedger, reviews repository.ReviewRepository,
	cache ProductCache, m *metrics.Metrics) *CatalogUseCase {
	return &CatalogUseCase{products: products, inventory: inventory, reviews: reviews, cache: cache, metrics: m, now: time.Now}
}

// ListProducts returns a page of products filtered by category and name keyword.
func (u *CatalogUseCase) ListProducts(ctx context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return model.Page[model.Product]{}, domainErrors.ErrInvalidInput
	}
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	return u.products.List(ctx, filter, page.Normalize(defaultProductPageSize, maxPageSize))
}

// GetProduct reads through the product cache.
func (u *CatalogUseCase) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	if product, ok := u.cache.Get(ctx, id); ok {
		u.metrics.CacheLookup(true)
		return product, nil
	}
	u.metrics.CacheLookup(false)

	product, err := u.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.cache.Set(ctx, product)
	return product, nil
}

// ProductDetail returns a product with one page of its reviews, newest first.
func (u *CatalogUseCase) ProductDetail(ctx context.Context, id int64, reviewPage model.PageRequest) (*model.ProductDetail, error) {
	product, err := u.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := u.reviews.ListByProduct(ctx, id, reviewPage.Normalize(defaultReviewPageSize, maxPageSize))
	if err != nil {
		return nil, err
	}
	return &model.ProductDetail{Product: *product, Reviews: reviews}, nil
}

// PopularProducts ranks products by units sold in settled orders over the last 30 days.
func (u *CatalogUseCase) PopularProducts(ctx context.Context) ([]model.PopularProduct, error) {
	return u.products.Popular(ctx, u.now().Add(-popularWindow), popularLimit)
}

func (u *CatalogUseCase) CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	return u.products.Create(ctx, product)
}

func (u *CatalogUseCase) UpdateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product.ID <= 0 {
		return nil, domainErrors.ErrNotFound
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	updated, err := u.products.Update(ctx, product)
	if err != nil {
		return nil, err
	}
	u.cache.Invalidate(ctx, product.ID)
	return updated, nil
}

func (u *CatalogUseCase) DeleteProduct(ctx context.Context, id int64) error {
	if err := u.products.Delete(ctx, id); err != nil {
		return err
	}
	u.cache.Invalidate(ctx, id)
	return nil
}

// AdjustStock restocks (positive delta) or writes off (negative delta) units
// of a product and returns the resulting stock. Stock never goes negative.
func (u *CatalogUseCase) AdjustStock(ctx context.Context, productID int64, delta int) (int, error) {
	var err error
	switch {
	case delta > 0:
		err = u.inventory.Increment(ctx, productID, delta)
	case delta < 0:
		err = u.inventory.Decrement(ctx, productID, -delta)
	default:
		err = domainErrors.ErrInvalidInput
	}
	if err != nil {
		return 0, err
	}
	u.cache.Invalidate(ctx, productID)
	return u.inventory.Stock(ctx, productID)
}

func validateProduct(p *model.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Price < 0 || p.Stock < 0 || !p.Category.Valid() {
		return domainErrors.ErrInvalidInput
	}
	return nil
}
