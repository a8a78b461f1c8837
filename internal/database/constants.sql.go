package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getConstants = `SELECT c.tax_id, t.name, t.rate, c.service_id, s.name, s.amount, c.updated_at
FROM constants c
LEFT JOIN taxes t ON t.id = c.tax_id
LEFT JOIN services s ON s.id = c.service_id
WHERE c.id = 1`

type GetConstantsRow struct {
	TaxID         pgtype.UUID        `json:"tax_id"`
	TaxName       pgtype.Text        `json:"tax_name"`
	TaxRate       pgtype.Numeric     `json:"tax_rate"`
	ServiceID     pgtype.UUID        `json:"service_id"`
	ServiceName   pgtype.Text        `json:"service_name"`
	ServiceAmount pgtype.Numeric     `json:"service_amount"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) GetConstants(ctx context.Context) (GetConstantsRow, error) {
	row := q.db.QueryRow(ctx, getConstants)
	var i GetConstantsRow
	err := row.Scan(
		&i.TaxID,
		&i.TaxName,
		&i.TaxRate,
		&i.ServiceID,
		&i.ServiceName,
		&i.ServiceAmount,
		&i.UpdatedAt,
	)
	return i, err
}

const createTax = `INSERT INTO taxes (name, rate) VALUES ($1, $2)
RETURNING id, name, rate, created_at`

type CreateTaxParams struct {
	Name string         `json:"name"`
	Rate pgtype.Numeric `json:"rate"`
}

func (q *Queries) CreateTax(ctx context.Context, arg CreateTaxParams) (Tax, error) {
	row := q.db.QueryRow(ctx, createTax, arg.Name, arg.Rate)
	var i Tax
	err := row.Scan(&i.ID, &i.Name, &i.Rate, &i.CreatedAt)
	return i, err
}

const createService = `INSERT INTO services (name, amount) VALUES ($1, $2)
RETURNING id, name, amount, created_at`

type CreateServiceParams struct {
	Name   string         `json:"name"`
	Amount pgtype.Numeric `json:"amount"`
}

func (q *Queries) CreateService(ctx context.Context, arg CreateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, createService, arg.Name, arg.Amount)
	var i Service
	err := row.Scan(&i.ID, &i.Name, &i.Amount, &i.CreatedAt)
	return i, err
}

const setConstants = `INSERT INTO constants (id, tax_id, service_id, updated_at)
VALUES (1, $1, $2, now())
ON CONFLICT (id) DO UPDATE SET tax_id = EXCLUDED.tax_id, service_id = EXCLUDED.service_id, updated_at = now()`

type SetConstantsParams struct {
	TaxID     pgtype.UUID `json:"tax_id"`
	ServiceID pgtype.UUID `json:"service_id"`
}

func (q *Queries) SetConstants(ctx context.Context, arg SetConstantsParams) error {
	_, err := q.db.Exec(ctx, setConstants, arg.TaxID, arg.ServiceID)
	return err
}

const getDiscount = `SELECT id, name, percentage, is_active, created_at FROM discounts WHERE id = $1`

func (q *Queries) GetDiscount(ctx context.Context, id uuid.UUID) (Discount, error) {
	row := q.db.QueryRow(ctx, getDiscount, id)
	var i Discount
	err := row.Scan(&i.ID, &i.Name, &i.Percentage, &i.IsActive, &i.CreatedAt)
	return i, err
}

const createDiscount = `INSERT INTO discounts (name, percentage) VALUES ($1, $2)
RETURNING id, name, percentage, is_active, created_at`

type CreateDiscountParams struct {
	Name       string         `json:"name"`
	Percentage pgtype.Numeric `json:"percentage"`
}

func (q *Queries) CreateDiscount(ctx context.Context, arg CreateDiscountParams) (Discount, error) {
	row := q.db.QueryRow(ctx, createDiscount, arg.Name, arg.Percentage)
	var i Discount
	err := row.Scan(&i.ID, &i.Name, &i.Percentage, &i.IsActive, &i.CreatedAt)
	return i, err
}
