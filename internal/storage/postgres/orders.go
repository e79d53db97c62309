package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
)

const orderColumns = `id, user_id, address, status, source, COALESCE(tid, ''), total_price, created_at, paid_at, approval_started_at`

func scanOrder(row scanner) (*model.Order, error) {
	var o model.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.Address, &o.Status, &o.Source, &o.TransactionID, &o.TotalPrice, &o.CreatedAt, &o.PaidAt, &o.ApprovalStartedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	created := *order
	created.Lines = make([]model.OrderLine, len(order.Lines))
	copy(created.Lines, order.Lines)

	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const insertOrder = `INSERT INTO orders (user_id, address, status, source, total_price)
                             VALUES ($1, $2, $3, $4, $5)
                             RETURNING id, created_at`
		err := tx.QueryRow(ctx, insertOrder, order.UserID, order.Address, order.Status, order.Source, order.TotalPrice).
			Scan(&created.ID, &created.CreatedAt)
		if err != nil {
			return err
		}

		const insertLine = `INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price)
                            VALUES ($1, $2, $3, $4, $5)
                            RETURNING id`
		for i := range created.Lines {
			line := &created.Lines[i]
			line.OrderID = created.ID
			if err := tx.QueryRow(ctx, insertLine, created.ID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice).Scan(&line.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &created, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := loadLines(ctx, r.storage.pool, []*model.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64, page model.PageRequest) (model.Page[model.Order], error) {
	const countQuery = `SELECT COUNT(*) FROM orders WHERE user_id=$1`
	const listQuery = `SELECT ` + orderColumns + `
                       FROM orders WHERE user_id=$1
                       ORDER BY created_at DESC, id DESC
                       LIMIT $2 OFFSET $3`

	var total int64
	if err := r.storage.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return model.Page[model.Order]{}, err
	}

	orders, err := queryOrders(ctx, r.storage.pool, listQuery, userID, page.Size, page.Offset())
	if err != nil {
		return model.Page[model.Order]{}, err
	}

	refs := make([]*model.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := loadLines(ctx, r.storage.pool, refs); err != nil {
		return model.Page[model.Order]{}, err
	}
	return model.NewPage(orders, page, total), nil
}

func (r *orderRepository) SetTransactionID(ctx context.Context, orderID int64, tid string) error {
	const query = `UPDATE orders SET tid=$2, updated_at=NOW() WHERE id=$1 AND status='PENDING' AND tid IS NULL`
	tag, err := r.storage.pool.Exec(ctx, query, orderID, tid)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.explainMiss(ctx, orderID)
	}
	return nil
}

func (r *orderRepository) BeginApproval(ctx context.Context, orderID int64) error {
	const query = `UPDATE orders SET approval_started_at=NOW(), updated_at=NOW()
                   WHERE id=$1 AND status='PENDING' AND tid IS NOT NULL AND approval_started_at IS NULL`
	tag, err := r.storage.pool.Exec(ctx, query, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.explainMiss(ctx, orderID)
	}
	return nil
}

func (r *orderRepository) AbortApproval(ctx context.Context, orderID int64) error {
	const query = `UPDATE orders SET approval_started_at=NULL, updated_at=NOW() WHERE id=$1 AND status='PENDING'`
	_, err := r.storage.pool.Exec(ctx, query, orderID)
	return err
}

// MarkPaid flips a pending order to PAID and takes its lines out of stock.
// The cart is emptied in the same transaction when the order came from it.
func (r *orderRepository) MarkPaid(ctx context.Context, orderID int64) (*model.Order, error) {
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		switch {
		case order.Status == model.OrderStatusPaid:
			return domainErrors.ErrAlreadyPaid
		case order.Status != model.OrderStatusPending, order.TransactionID == "":
			return domainErrors.ErrInvalidTransition
		}

		for _, item := range aggregateLines(order.Lines) {
			if err := r.storage.decrementStockTx(ctx, tx, item.productID, item.quantity); err != nil {
				return err
			}
		}

		const update = `UPDATE orders SET status='PAID', paid_at=NOW(), updated_at=NOW() WHERE id=$1 RETURNING paid_at`
		var paidAt time.Time
		if err := tx.QueryRow(ctx, update, orderID).Scan(&paidAt); err != nil {
			return err
		}
		order.Status = model.OrderStatusPaid
		order.PaidAt = &paidAt

		if order.Source == model.OrderSourceCart {
			return clearCart(ctx, tx, order.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel moves an order to CANCELLED, returning stock when it had been paid.
func (r *orderRepository) Cancel(ctx context.Context, orderID int64) (*model.Order, error) {
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		switch order.Status {
		case model.OrderStatusPaid:
			for _, item := range aggregateLines(order.Lines) {
				if err := r.storage.incrementStockTx(ctx, tx, item.productID, item.quantity); err != nil {
					return err
				}
			}
		case model.OrderStatusPending:
			if !order.Deletable() {
				return domainErrors.ErrInvalidTransition
			}
		default:
			return domainErrors.ErrInvalidTransition
		}

		const update = `UPDATE orders SET status='CANCELLED', updated_at=NOW() WHERE id=$1`
		if _, err := tx.Exec(ctx, update, orderID); err != nil {
			return err
		}
		order.Status = model.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) DeletePending(ctx context.Context, orderID int64) error {
	const query = `DELETE FROM orders WHERE id=$1 AND status='PENDING' AND approval_started_at IS NULL`
	tag, err := r.storage.pool.Exec(ctx, query, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.explainMiss(ctx, orderID)
	}
	return nil
}

func (r *orderRepository) UpdateFulfillment(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		allowed := (order.Status == model.OrderStatusPaid && status == model.OrderStatusShipped) ||
			(order.Status == model.OrderStatusShipped && status == model.OrderStatusDelivered)
		if !allowed {
			return domainErrors.ErrInvalidTransition
		}

		const update = `UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1`
		if _, err := tx.Exec(ctx, update, orderID, status); err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) StalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + `
                   FROM orders
                   WHERE status='PENDING' AND created_at < $1 AND approval_started_at IS NULL
                   ORDER BY created_at
                   LIMIT $2`
	return queryOrders(ctx, r.storage.pool, query, before, limit)
}

// explainMiss tells a missing order apart from one in the wrong state.
func (r *orderRepository) explainMiss(ctx context.Context, orderID int64) error {
	const query = `SELECT status FROM orders WHERE id=$1`
	var status model.OrderStatus
	if err := r.storage.pool.QueryRow(ctx, query, orderID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainErrors.ErrNotFound
		}
		return err
	}
	if status == model.OrderStatusPaid {
		return domainErrors.ErrAlreadyPaid
	}
	return domainErrors.ErrInvalidTransition
}

func lockOrder(ctx context.Context, tx pgx.Tx, orderID int64) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1 FOR UPDATE`
	order, err := scanOrder(tx.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, err
	}
	if err := loadLines(ctx, tx, []*model.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func queryOrders(ctx context.Context, db querier, query string, args ...any) ([]model.Order, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func loadLines(ctx context.Context, db querier, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	byID := make(map[int64]*model.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	const query = `SELECT id, order_id, product_id, product_name, quantity, unit_price
                   FROM order_lines WHERE order_id = ANY($1)
                   ORDER BY order_id, id`
	rows, err := db.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return err
		}
		if o, ok := byID[l.OrderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}

type stockChange struct {
	productID int64
	quantity  int
}

// aggregateLines sums quantities per product in ascending product id order,
// so concurrent transactions acquire product locks in the same sequence.
func aggregateLines(lines []model.OrderLine) []stockChange {
	totals := make(map[int64]int, len(lines))
	for _, l := range lines {
		totals[l.ProductID] += l.Quantity
	}
	result := make([]stockChange, 0, len(totals))
	for id, qty := range totals {
		result = append(result, stockChange{productID: id, quantity: qty})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].productID < result[j].productID })
	return result
}
