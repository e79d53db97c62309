package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
)

const productColumns = `p.id, p.name, p.description, p.image_url, p.price, p.stock, p.category,
                        COALESCE((SELECT AVG(r.rating) FROM reviews r WHERE r.product_id = p.id), 0)::float8,
                        p.created_at, p.updated_at`

const productFilter = `($1 = '' OR p.category = $1) AND ($2 = '' OR p.name ILIKE '%' || $2 || '%' ESCAPE '\')`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanProduct(row scanner, extra ...any) (*model.Product, error) {
	var p model.Product
	dest := []any{&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.Stock, &p.Category, &p.Rating, &p.CreatedAt, &p.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	const query = `INSERT INTO products (name, description, image_url, price, stock, category)
                   VALUES ($1, $2, $3, $4, $5, $6)
                   RETURNING id, created_at, updated_at`
	created := *product
	err := r.storage.pool.QueryRow(ctx, query,
		product.Name, product.Description, product.ImageURL, product.Price, product.Stock, product.Category,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return nil, domainErrors.ErrAlreadyExists
		case pgCheckViolation:
			return nil, domainErrors.ErrInvalidInput
		}
		return nil, err
	}
	return &created, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) (*model.Product, error) {
	const query = `UPDATE products
                   SET name=$2, description=$3, image_url=$4, price=$5, stock=$6, category=$7, updated_at=NOW()
                   WHERE id=$1
                   RETURNING created_at, updated_at`
	updated := *product
	err := r.storage.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.ImageURL, product.Price, product.Stock, product.Category,
	).Scan(&updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return nil, domainErrors.ErrAlreadyExists
		case pgCheckViolation:
			return nil, domainErrors.ErrInvalidInput
		}
		return nil, err
	}
	return &updated, nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM products WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return domainErrors.ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products p WHERE p.id=$1`
	return scanProduct(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *productRepository) List(ctx context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error) {
	const countQuery = `SELECT COUNT(*) FROM products p WHERE ` + productFilter
	const listQuery = `SELECT ` + productColumns + ` FROM products p WHERE ` + productFilter + `
                       ORDER BY p.id
                       LIMIT $3 OFFSET $4`

	category := string(filter.Category)
	keyword := likeEscaper.Replace(strings.TrimSpace(filter.Keyword))

	var total int64
	if err := r.storage.pool.QueryRow(ctx, countQuery, category, keyword).Scan(&total); err != nil {
		return model.Page[model.Product]{}, err
	}

	rows, err := r.storage.pool.Query(ctx, listQuery, category, keyword, page.Size, page.Offset())
	if err != nil {
		return model.Page[model.Product]{}, err
	}
	defer rows.Close()

	var items []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return model.Page[model.Product]{}, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Product]{}, err
	}
	return model.NewPage(items, page, total), nil
}

func (r *productRepository) Popular(ctx context.Context, since time.Time, limit int) ([]model.PopularProduct, error) {
	const query = `SELECT ` + productColumns + `, SUM(l.quantity)::int8 AS sold
                   FROM order_lines l
                   JOIN orders o ON o.id = l.order_id
                   JOIN products p ON p.id = l.product_id
                   WHERE o.status IN ('PAID', 'SHIPPED', 'DELIVERED') AND o.created_at >= $1
                   GROUP BY p.id
                   ORDER BY sold DESC, p.id
                   LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PopularProduct
	for rows.Next() {
		var sold int
		p, err := scanProduct(rows, &sold)
		if err != nil {
			return nil, err
		}
		result = append(result, model.PopularProduct{Product: *p, Sold: sold})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- InventoryLedger implementation ---

// findProductForUpdate reads stock and holds the row lock until tx ends.
func (s *Storage) findProductForUpdate(ctx context.Context, tx pgx.Tx, productID int64) (int, error) {
	const query = `SELECT stock FROM products WHERE id=$1 FOR UPDATE`
	var stock int
	if err := tx.QueryRow(ctx, query, productID).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domainErrors.ErrNotFound
		}
		return 0, err
	}
	return stock, nil
}

func (s *Storage) decrementStockTx(ctx context.Context, tx pgx.Tx, productID int64, qty int) error {
	stock, err := s.findProductForUpdate(ctx, tx, productID)
	if err != nil {
		return err
	}
	if stock < qty {
		return domainErrors.ErrInsufficientStock
	}

	const update = `UPDATE products SET stock = stock - $2, updated_at=NOW() WHERE id=$1`
	if _, err := tx.Exec(ctx, update, productID, qty); err != nil {
		if pgErrorCode(err) == pgCheckViolation {
			return domainErrors.ErrInsufficientStock
		}
		return err
	}
	return nil
}

func (s *Storage) incrementStockTx(ctx context.Context, tx pgx.Tx, productID int64, qty int) error {
	if _, err := s.findProductForUpdate(ctx, tx, productID); err != nil {
		return err
	}

	const update = `UPDATE products SET stock = stock + $2, updated_at=NOW() WHERE id=$1`
	if _, err := tx.Exec(ctx, update, productID, qty); err != nil {
		return err
	}
	return nil
}

func (l *inventoryLedger) Decrement(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return domainErrors.ErrInvalidInput
	}
	return l.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		return l.storage.decrementStockTx(ctx, tx, productID, qty)
	})
}

func (l *inventoryLedger) Increment(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return domainErrors.ErrInvalidInput
	}
	return l.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		return l.storage.incrementStockTx(ctx, tx, productID, qty)
	})
}

func (l *inventoryLedger) Stock(ctx context.Context, productID int64) (int, error) {
	const query = `SELECT stock FROM products WHERE id=$1`
	var stock int
	if err := l.storage.pool.QueryRow(ctx, query, productID).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domainErrors.ErrNotFound
		}
		return 0, err
	}
	return stock, nil
}
