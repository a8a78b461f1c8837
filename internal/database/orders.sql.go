package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, table_id, user_id, status, cancellation_reason, canceled_by, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.TableID,
		&i.UserID,
		&i.Status,
		&i.CancellationReason,
		&i.CanceledBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createOrder = `INSERT INTO orders (table_id, user_id, status)
VALUES ($1, $2, 'PENDING')
RETURNING ` + orderColumns

type CreateOrderParams struct {
	TableID pgtype.UUID `json:"table_id"`
	UserID  uuid.UUID   `json:"user_id"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder, arg.TableID, arg.UserID))
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOrders = `SELECT ` + orderColumns + ` FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::uuid IS NULL OR table_id = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

type ListOrdersParams struct {
	Status  pgtype.Text `json:"status"`
	TableID pgtype.UUID `json:"table_id"`
	Limit   int32       `json:"limit"`
	Offset  int32       `json:"offset"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Status, arg.TableID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const listOrdersByTable = `SELECT ` + orderColumns + ` FROM orders
WHERE table_id = $1
ORDER BY created_at DESC`

func (q *Queries) ListOrdersByTable(ctx context.Context, tableID pgtype.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByTable, tableID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const getLatestOrderByTable = `SELECT ` + orderColumns + ` FROM orders
WHERE table_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1`

func (q *Queries) GetLatestOrderByTable(ctx context.Context, tableID pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getLatestOrderByTable, tableID))
}

const updateOrderStatus = `UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID     uuid.UUID   `json:"id"`
	Status OrderStatus `json:"status"`
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status))
}

// CancelOrder detaches the order from its table and records who canceled it and why.
const cancelOrder = `UPDATE orders
SET status = 'CANCELED', table_id = NULL, cancellation_reason = $2, canceled_by = $3, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type CancelOrderParams struct {
	ID         uuid.UUID   `json:"id"`
	Reason     string      `json:"reason"`
	CanceledBy pgtype.UUID `json:"canceled_by"`
}

func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, cancelOrder, arg.ID, arg.Reason, arg.CanceledBy))
}

const deleteOrder = `DELETE FROM orders WHERE id = $1`

func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteOrder, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const countOpenOrdersByTable = `SELECT count(*) FROM orders
WHERE table_id = $1 AND status NOT IN ('CANCELED', 'COMPLETED')`

func (q *Queries) CountOpenOrdersByTable(ctx context.Context, tableID pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countOpenOrdersByTable, tableID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
