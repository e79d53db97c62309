package usecase

import (
	"context"
	"strings"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/domain/repository"
)

// ReviewUseCase manages product reviews.
type ReviewUseCase struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	cache    ProductCache
}

// NewReviewUseCase constructs ReviewUseCase.
func NewReviewUseCase(reviews repository.ReviewRepository, products repository.ProductRepository, cache ProductCache) *ReviewUseCase {
	return &ReviewUseCase{reviews: reviews, products: products, cache: cache}
}

// CreateReview stores the caller's only review of a product.
func (u *ReviewUseCase) CreateReview(ctx context.Context, userID, productID int64, rating int, content string) (*model.Review, error) {
	content, err := validateReview(rating, content)
	if err != nil {
		return nil, err
	}
	if _, err := u.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	review, err := u.reviews.Create(ctx, &model.Review{ProductID: productID, UserID: userID, Rating: rating, Content: content})
	if err != nil {
		return nil, err
	}
	// average rating is part of the cached product
	u.cache.Invalidate(ctx, productID)
	return review, nil
}

// UpdateReview changes a review; only its author may do so.
func (u *ReviewUseCase) UpdateReview(ctx context.Context, userID, reviewID int64, rating int, content string) (*model.Review, error) {
	content, err := validateReview(rating, content)
	if err != nil {
		return nil, err
	}

	review, err := u.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, domainErrors.ErrForbidden
	}

	review.Rating = rating
	review.Content = content
	updated, err := u.reviews.Update(ctx, review)
	if err != nil {
		return nil, err
	}
	u.cache.Invalidate(ctx, review.ProductID)
	return updated, nil
}

func (u *ReviewUseCase) GetReview(ctx context.Context, id int64) (*model.Review, error) {
	return u.reviews.GetByID(ctx, id)
}

func validateReview(rating int, content string) (string, error) {
	content = strings.TrimSpace(content)
	if rating < 1 || rating > 5 || content == "" {
		return "", domainErrors.ErrInvalidInput
	}
	return content, nil
}
