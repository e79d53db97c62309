package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
)

const reviewColumns = `r.id, r.product_id, r.user_id, u.username, r.rating, r.content, r.created_at, r.updated_at`

func scanReview(row scanner) (*model.Review, error) {
	var rv model.Review
	if err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Author, &rv.Rating, &rv.Content, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) (*model.Review, error) {
	const query = `WITH inserted AS (
                       INSERT INTO reviews (product_id, user_id, rating, content)
                       VALUES ($1, $2, $3, $4)
                       RETURNING id, product_id, user_id, rating, content, created_at, updated_at
                   )
                   SELECT ` + reviewColumns + ` FROM inserted r JOIN users u ON u.id = r.user_id`
	created, err := scanReview(r.storage.pool.QueryRow(ctx, query, review.ProductID, review.UserID, review.Rating, review.Content))
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return nil, domainErrors.ErrAlreadyExists
		case pgForeignKeyViolation:
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return created, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *model.Review) (*model.Review, error) {
	const query = `WITH updated AS (
                       UPDATE reviews SET rating=$2, content=$3, updated_at=NOW()
                       WHERE id=$1
                       RETURNING id, product_id, user_id, rating, content, created_at, updated_at
                   )
                   SELECT ` + reviewColumns + ` FROM updated r JOIN users u ON u.id = r.user_id`
	return scanReview(r.storage.pool.QueryRow(ctx, query, review.ID, review.Rating, review.Content))
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.id=$1`
	return scanReview(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID int64, page model.PageRequest) (model.Page[model.Review], error) {
	const countQuery = `SELECT COUNT(*) FROM reviews WHERE product_id=$1`
	const listQuery = `SELECT ` + reviewColumns + `
                       FROM reviews r JOIN users u ON u.id = r.user_id
                       WHERE r.product_id=$1
                       ORDER BY r.created_at DESC, r.id DESC
                       LIMIT $2 OFFSET $3`

	var total int64
	if err := r.storage.pool.QueryRow(ctx, countQuery, productID).Scan(&total); err != nil {
		return model.Page[model.Review]{}, err
	}

	rows, err := r.storage.pool.Query(ctx, listQuery, productID, page.Size, page.Offset())
	if err != nil {
		return model.Page[model.Review]{}, err
	}
	defer rows.Close()

	var items []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return model.Page[model.Review]{}, err
		}
		items = append(items, *rv)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Review]{}, err
	}
	return model.NewPage(items, page, total), nil
}
