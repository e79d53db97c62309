package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
)

func (r *cartRepository) ListByUser(ctx context.Context, userID int64) ([]model.CartLine, error) {
	const query = `SELECT c.id, c.user_id, c.product_id, c.quantity, p.name, p.image_url, p.price, p.stock
                   FROM cart_lines c
                   JOIN products p ON p.id = c.product_id
                   WHERE c.user_id=$1
                   ORDER BY c.id`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.CartLine
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.ProductName, &l.ImageURL, &l.Price, &l.Stock); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *cartRepository) AddLine(ctx context.Context, userID, productID int64, qty int) (*model.CartLine, error) {
	line := &model.CartLine{UserID: userID, ProductID: productID}
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const selectLine = `SELECT id, quantity FROM cart_lines WHERE user_id=$1 AND product_id=$2 FOR UPDATE`
		var existing int
		err := tx.QueryRow(ctx, selectLine, userID, productID).Scan(&line.ID, &existing)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if existing+qty > model.MaxCartLineQuantity {
			return domainErrors.ErrLimitExceeded
		}
		line.Quantity = existing + qty

		if existing > 0 {
			const update = `UPDATE cart_lines SET quantity=$2 WHERE id=$1`
			_, err := tx.Exec(ctx, update, line.ID, line.Quantity)
			return err
		}

		// A concurrent add may have created the line since the select above.
		const insert = `INSERT INTO cart_lines (user_id, product_id, quantity) VALUES ($1, $2, $3)
                        ON CONFLICT (user_id, product_id) DO UPDATE
                        SET quantity = cart_lines.quantity + EXCLUDED.quantity
                        WHERE cart_lines.quantity + EXCLUDED.quantity <= $4
                        RETURNING id, quantity`
		err = tx.QueryRow(ctx, insert, userID, productID, qty, model.MaxCartLineQuantity).Scan(&line.ID, &line.Quantity)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domainErrors.ErrLimitExceeded
		case pgErrorCode(err) == pgForeignKeyViolation:
			return domainErrors.ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (r *cartRepository) UpdateLine(ctx context.Context, userID, lineID int64, delta int) (*model.CartLine, error) {
	line := &model.CartLine{ID: lineID, UserID: userID}
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const selectLine = `SELECT product_id, quantity FROM cart_lines WHERE id=$1 AND user_id=$2 FOR UPDATE`
		var current int
		if err := tx.QueryRow(ctx, selectLine, lineID, userID).Scan(&line.ProductID, &current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}

		next := current + delta
		if next < 1 || next > model.MaxCartLineQuantity {
			return domainErrors.ErrOutOfRange
		}
		line.Quantity = next

		const update = `UPDATE cart_lines SET quantity=$2 WHERE id=$1`
		_, err := tx.Exec(ctx, update, lineID, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (r *cartRepository) RemoveLine(ctx context.Context, userID, lineID int64) error {
	const query = `DELETE FROM cart_lines WHERE id=$1 AND user_id=$2`
	_, err := r.storage.pool.Exec(ctx, query, lineID, userID)
	return err
}

func (r *cartRepository) RemoveProduct(ctx context.Context, userID, productID int64) error {
	const query = `DELETE FROM cart_lines WHERE user_id=$1 AND product_id=$2`
	_, err := r.storage.pool.Exec(ctx, query, userID, productID)
	return err
}

func (r *cartRepository) ClearForUser(ctx context.Context, userID int64) error {
	return clearCart(ctx, r.storage.pool, userID)
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func clearCart(ctx context.Context, db execer, userID int64) error {
	const query = `DELETE FROM cart_lines WHERE user_id=$1`
	_, err := db.Exec(ctx, query, userID)
	return err
}
