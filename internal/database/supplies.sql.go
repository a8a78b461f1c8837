package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const supplyColumns = `id, company_id, name, remaining_quantity, unit_price, created_at, updated_at`

func scanSupply(row pgx.Row) (Supply, error) {
	var i Supply
	err := row.Scan(
		&i.ID,
		&i.CompanyID,
		&i.Name,
		&i.RemainingQuantity,
		&i.UnitPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getSupply = `SELECT ` + supplyColumns + ` FROM supplies WHERE id = $1`

func (q *Queries) GetSupply(ctx context.Context, id uuid.UUID) (Supply, error) {
	return scanSupply(q.db.QueryRow(ctx, getSupply, id))
}

const listSupplies = `SELECT ` + supplyColumns + ` FROM supplies ORDER BY name, created_at, id`

func (q *Queries) ListSupplies(ctx context.Context) ([]Supply, error) {
	rows, err := q.db.Query(ctx, listSupplies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Supply{}
	for rows.Next() {
		i, err := scanSupply(rows)
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

const createSupply = `INSERT INTO supplies (company_id, name, remaining_quantity, unit_price)
VALUES ($1, $2, $3, $4)
RETURNING ` + supplyColumns

type CreateSupplyParams struct {
	CompanyID         pgtype.UUID    `json:"company_id"`
	Name              string         `json:"name"`
	RemainingQuantity int32          `json:"remaining_quantity"`
	UnitPrice         pgtype.Numeric `json:"unit_price"`
}

func (q *Queries) CreateSupply(ctx context.Context, arg CreateSupplyParams) (Supply, error) {
	return scanSupply(q.db.QueryRow(ctx, createSupply,
		arg.CompanyID,
		arg.Name,
		arg.RemainingQuantity,
		arg.UnitPrice,
	))
}

// FindSupplyByName returns the oldest supply whose name matches case-insensitively.
const findSupplyByName = `SELECT ` + supplyColumns + ` FROM supplies
WHERE lower(name) = lower($1)
ORDER BY created_at, id
LIMIT 1`

func (q *Queries) FindSupplyByName(ctx context.Context, name string) (Supply, error) {
	return scanSupply(q.db.QueryRow(ctx, findSupplyByName, name))
}

const adjustSupplyQuantity = `UPDATE supplies
SET remaining_quantity = remaining_quantity + $2, updated_at = now()
WHERE id = $1
RETURNING ` + supplyColumns

type AdjustSupplyQuantityParams struct {
	ID    uuid.UUID `json:"id"`
	Delta int32     `json:"delta"`
}

func (q *Queries) AdjustSupplyQuantity(ctx context.Context, arg AdjustSupplyQuantityParams) (Supply, error) {
	return scanSupply(q.db.QueryRow(ctx, adjustSupplyQuantity, arg.ID, arg.Delta))
}

const supplyMovementColumns = `id, supply_id, order_id, quantity_delta, reason, created_by, created_at`

func scanSupplyMovement(row pgx.Row) (SupplyMovement, error) {
	var i SupplyMovement
	err := row.Scan(
		&i.ID,
		&i.SupplyID,
		&i.OrderID,
		&i.QuantityDelta,
		&i.Reason,
		&i.CreatedBy,
		&i.CreatedAt,
	)
	return i, err
}

const createSupplyMovement = `INSERT INTO supply_movements (supply_id, order_id, quantity_delta, reason, created_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + supplyMovementColumns

type CreateSupplyMovementParams struct {
	SupplyID      uuid.UUID   `json:"supply_id"`
	OrderID       pgtype.UUID `json:"order_id"`
	QuantityDelta int32       `json:"quantity_delta"`
	Reason        string      `json:"reason"`
	CreatedBy     pgtype.UUID `json:"created_by"`
}

func (q *Queries) CreateSupplyMovement(ctx context.Context, arg CreateSupplyMovementParams) (SupplyMovement, error) {
	return scanSupplyMovement(q.db.QueryRow(ctx, createSupplyMovement,
		arg.SupplyID,
		arg.OrderID,
		arg.QuantityDelta,
		arg.Reason,
		arg.CreatedBy,
	))
}

const listSupplyMovementsBySupply = `SELECT ` + supplyMovementColumns + ` FROM supply_movements
WHERE supply_id = $1
ORDER BY created_at DESC
LIMIT $2`

type ListSupplyMovementsBySupplyParams struct {
	SupplyID uuid.UUID `json:"supply_id"`
	Limit    int32     `json:"limit"`
}

func (q *Queries) ListSupplyMovementsBySupply(ctx context.Context, arg ListSupplyMovementsBySupplyParams) ([]SupplyMovement, error) {
	rows, err := q.db.Query(ctx, listSupplyMovementsBySupply, arg.SupplyID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SupplyMovement{}
	for rows.Next() {
		i, err := scanSupplyMovement(rows)
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
