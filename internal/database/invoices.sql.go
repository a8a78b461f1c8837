package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const createInvoiceRef = `INSERT INTO invoice_refs (order_id) VALUES ($1)
RETURNING id, order_id, created_at`

func (q *Queries) CreateInvoiceRef(ctx context.Context, orderID uuid.UUID) (InvoiceRef, error) {
	row := q.db.QueryRow(ctx, createInvoiceRef, orderID)
	var i InvoiceRef
	err := row.Scan(&i.ID, &i.OrderID, &i.CreatedAt)
	return i, err
}

const getInvoiceRefByOrder = `SELECT id, order_id, created_at FROM invoice_refs WHERE order_id = $1`

func (q *Queries) GetInvoiceRefByOrder(ctx context.Context, orderID uuid.UUID) (InvoiceRef, error) {
	row := q.db.QueryRow(ctx, getInvoiceRefByOrder, orderID)
	var i InvoiceRef
	err := row.Scan(&i.ID, &i.OrderID, &i.CreatedAt)
	return i, err
}

// GetInvoiceRefByOrderForUpdate serializes version allocation for one order.
const getInvoiceRefByOrderForUpdate = `SELECT id, order_id, created_at FROM invoice_refs WHERE order_id = $1 FOR UPDATE`

func (q *Queries) GetInvoiceRefByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (InvoiceRef, error) {
	row := q.db.QueryRow(ctx, getInvoiceRefByOrderForUpdate, orderID)
	var i InvoiceRef
	err := row.Scan(&i.ID, &i.OrderID, &i.CreatedAt)
	return i, err
}

const invoiceColumns = `id, invoice_ref_id, version, is_latest_version, subtotal, total,
    tax_id, service_id, discount_id, tax_rate, service_amount, discount_percentage,
    payment_method, paid, amount_paid, status, user_id, table_id, created_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var i Invoice
	err := row.Scan(
		&i.ID,
		&i.InvoiceRefID,
		&i.Version,
		&i.IsLatestVersion,
		&i.Subtotal,
		&i.Total,
		&i.TaxID,
		&i.ServiceID,
		&i.DiscountID,
		&i.TaxRate,
		&i.ServiceAmount,
		&i.DiscountPercentage,
		&i.PaymentMethod,
		&i.Paid,
		&i.AmountPaid,
		&i.Status,
		&i.UserID,
		&i.TableID,
		&i.CreatedAt,
	)
	return i, err
}

const getInvoice = `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

func (q *Queries) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, getInvoice, id))
}

const getMaxInvoiceVersion = `SELECT COALESCE(max(version), 0)::integer FROM invoices WHERE invoice_ref_id = $1`

func (q *Queries) GetMaxInvoiceVersion(ctx context.Context, invoiceRefID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getMaxInvoiceVersion, invoiceRefID)
	var version int32
	err := row.Scan(&version)
	return version, err
}

// SupersedeInvoice clears the latest flag only if the row is still the latest of its ref.
const supersedeInvoice = `UPDATE invoices
SET is_latest_version = false
WHERE id = $1 AND invoice_ref_id = $2 AND is_latest_version`

type SupersedeInvoiceParams struct {
	ID           uuid.UUID `json:"id"`
	InvoiceRefID uuid.UUID `json:"invoice_ref_id"`
}

func (q *Queries) SupersedeInvoice(ctx context.Context, arg SupersedeInvoiceParams) (int64, error) {
	result, err := q.db.Exec(ctx, supersedeInvoice, arg.ID, arg.InvoiceRefID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const createInvoice = `INSERT INTO invoices (
    invoice_ref_id, version, is_latest_version, subtotal, total,
    tax_id, service_id, discount_id, tax_rate, service_amount, discount_percentage,
    payment_method, paid, amount_paid, status, user_id, table_id
) VALUES ($1, $2, true, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING ` + invoiceColumns

type CreateInvoiceParams struct {
	InvoiceRefID       uuid.UUID      `json:"invoice_ref_id"`
	Version            int32          `json:"version"`
	Subtotal           pgtype.Numeric `json:"subtotal"`
	Total              pgtype.Numeric `json:"total"`
	TaxID              pgtype.UUID    `json:"tax_id"`
	ServiceID          pgtype.UUID    `json:"service_id"`
	DiscountID         pgtype.UUID    `json:"discount_id"`
	TaxRate            pgtype.Numeric `json:"tax_rate"`
	ServiceAmount      pgtype.Numeric `json:"service_amount"`
	DiscountPercentage pgtype.Numeric `json:"discount_percentage"`
	PaymentMethod      pgtype.Text    `json:"payment_method"`
	Paid               bool           `json:"paid"`
	AmountPaid         pgtype.Numeric `json:"amount_paid"`
	Status             InvoiceStatus  `json:"status"`
	UserID             uuid.UUID      `json:"user_id"`
	TableID            pgtype.UUID    `json:"table_id"`
}

func (q *Queries) CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, createInvoice,
		arg.InvoiceRefID,
		arg.Version,
		arg.Subtotal,
		arg.Total,
		arg.TaxID,
		arg.ServiceID,
		arg.DiscountID,
		arg.TaxRate,
		arg.ServiceAmount,
		arg.DiscountPercentage,
		arg.PaymentMethod,
		arg.Paid,
		arg.AmountPaid,
		arg.Status,
		arg.UserID,
		arg.TableID,
	))
}

const getLatestInvoiceByOrder = `SELECT i.id, i.invoice_ref_id, i.version, i.is_latest_version, i.subtotal, i.total,
    i.tax_id, i.service_id, i.discount_id, i.tax_rate, i.service_amount, i.discount_percentage,
    i.payment_method, i.paid, i.amount_paid, i.status, i.user_id, i.table_id, i.created_at
FROM invoices i
JOIN invoice_refs r ON r.id = i.invoice_ref_id
WHERE r.order_id = $1 AND i.is_latest_version`

func (q *Queries) GetLatestInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, getLatestInvoiceByOrder, orderID))
}

const listInvoicesByOrder = `SELECT i.id, i.invoice_ref_id, i.version, i.is_latest_version, i.subtotal, i.total,
    i.tax_id, i.service_id, i.discount_id, i.tax_rate, i.service_amount, i.discount_percentage,
    i.payment_method, i.paid, i.amount_paid, i.status, i.user_id, i.table_id, i.created_at
FROM invoices i
JOIN invoice_refs r ON r.id = i.invoice_ref_id
WHERE r.order_id = $1
ORDER BY i.version DESC`

func (q *Queries) ListInvoicesByOrder(ctx context.Context, orderID uuid.UUID) ([]Invoice, error) {
	rows, err := q.db.Query(ctx, listInvoicesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Invoice{}
	for rows.Next() {
		i, err := scanInvoice(rows)
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
