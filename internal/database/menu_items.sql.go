package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, title, price, supply_id, is_active, created_at, updated_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Price,
		&i.SupplyID,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getMenuItem = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const listMenuItems = `SELECT ` + menuItemColumns + ` FROM menu_items
WHERE ($1::boolean = false OR is_active = true)
ORDER BY title`

func (q *Queries) ListMenuItems(ctx context.Context, activeOnly bool) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
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

const createMenuItem = `INSERT INTO menu_items (title, price, supply_id)
VALUES ($1, $2, $3)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	Title    string         `json:"title"`
	Price    pgtype.Numeric `json:"price"`
	SupplyID pgtype.UUID    `json:"supply_id"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem, arg.Title, arg.Price, arg.SupplyID))
}

const updateMenuItem = `UPDATE menu_items
SET title = $2, price = $3, supply_id = $4, is_active = $5, updated_at = now()
WHERE id = $1
RETURNING ` + menuItemColumns

type UpdateMenuItemParams struct {
	ID       uuid.UUID      `json:"id"`
	Title    string         `json:"title"`
	Price    pgtype.Numeric `json:"price"`
	SupplyID pgtype.UUID    `json:"supply_id"`
	IsActive bool           `json:"is_active"`
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.Title,
		arg.Price,
		arg.SupplyID,
		arg.IsActive,
	))
}
