package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderItemColumns = `id, order_id, menu_item_id, title, quantity, price, notes, sort_order, created_at`

func scanOrderItem(row pgx.Row) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuItemID,
		&i.Title,
		&i.Quantity,
		&i.Price,
		&i.Notes,
		&i.SortOrder,
		&i.CreatedAt,
	)
	return i, err
}

const createOrderItem = `INSERT INTO order_items (order_id, menu_item_id, title, quantity, price, notes, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + orderItemColumns

type CreateOrderItemParams struct {
	OrderID    uuid.UUID      `json:"order_id"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Title      string         `json:"title"`
	Quantity   int32          `json:"quantity"`
	Price      pgtype.Numeric `json:"price"`
	Notes      pgtype.Text    `json:"notes"`
	SortOrder  int32          `json:"sort_order"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.Title,
		arg.Quantity,
		arg.Price,
		arg.Notes,
		arg.SortOrder,
	))
}

const listOrderItemsByOrder = `SELECT ` + orderItemColumns + ` FROM order_items
WHERE order_id = $1
ORDER BY sort_order, created_at, id`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		i, err := scanOrderItem(rows)
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

// UpdateOrderItem changes quantity, notes and position. Price is a snapshot and is never rewritten.
const updateOrderItem = `UPDATE order_items
SET quantity = $2, notes = $3, sort_order = $4
WHERE id = $1
RETURNING ` + orderItemColumns

type UpdateOrderItemParams struct {
	ID        uuid.UUID   `json:"id"`
	Quantity  int32       `json:"quantity"`
	Notes     pgtype.Text `json:"notes"`
	SortOrder int32       `json:"sort_order"`
}

func (q *Queries) UpdateOrderItem(ctx context.Context, arg UpdateOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, updateOrderItem, arg.ID, arg.Quantity, arg.Notes, arg.SortOrder))
}

const deleteOrderItem = `DELETE FROM order_items WHERE id = $1 AND order_id = $2`

type DeleteOrderItemParams struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
}

func (q *Queries) DeleteOrderItem(ctx context.Context, arg DeleteOrderItemParams) error {
	_, err := q.db.Exec(ctx, deleteOrderItem, arg.ID, arg.OrderID)
	return err
}

const deletedOrderItemColumns = `id, order_item_id, order_id, invoice_id, menu_item_id, title, quantity, price, notes, reason, deleted_by, created_at`

func scanDeletedOrderItem(row pgx.Row) (DeletedOrderItem, error) {
	var i DeletedOrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderItemID,
		&i.OrderID,
		&i.InvoiceID,
		&i.MenuItemID,
		&i.Title,
		&i.Quantity,
		&i.Price,
		&i.Notes,
		&i.Reason,
		&i.DeletedBy,
		&i.CreatedAt,
	)
	return i, err
}

const createDeletedOrderItem = `INSERT INTO deleted_order_items
    (order_item_id, order_id, invoice_id, menu_item_id, title, quantity, price, notes, reason, deleted_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + deletedOrderItemColumns

type CreateDeletedOrderItemParams struct {
	OrderItemID uuid.UUID      `json:"order_item_id"`
	OrderID     uuid.UUID      `json:"order_id"`
	InvoiceID   uuid.UUID      `json:"invoice_id"`
	MenuItemID  uuid.UUID      `json:"menu_item_id"`
	Title       string         `json:"title"`
	Quantity    int32          `json:"quantity"`
	Price       pgtype.Numeric `json:"price"`
	Notes       pgtype.Text    `json:"notes"`
	Reason      string         `json:"reason"`
	DeletedBy   pgtype.UUID    `json:"deleted_by"`
}

func (q *Queries) CreateDeletedOrderItem(ctx context.Context, arg CreateDeletedOrderItemParams) (DeletedOrderItem, error) {
	return scanDeletedOrderItem(q.db.QueryRow(ctx, createDeletedOrderItem,
		arg.OrderItemID,
		arg.OrderID,
		arg.InvoiceID,
		arg.MenuItemID,
		arg.Title,
		arg.Quantity,
		arg.Price,
		arg.Notes,
		arg.Reason,
		arg.DeletedBy,
	))
}

const listDeletedOrderItemsByOrder = `SELECT ` + deletedOrderItemColumns + ` FROM deleted_order_items
WHERE order_id = $1
ORDER BY created_at, id`

func (q *Queries) ListDeletedOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]DeletedOrderItem, error) {
	rows, err := q.db.Query(ctx, listDeletedOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DeletedOrderItem{}
	for rows.Next() {
		i, err := scanDeletedOrderItem(rows)
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
