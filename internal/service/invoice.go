package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tablepos/api/internal/database"
)

// InvoiceStore defines the DB methods for appending invoice versions.
// Satisfied by *database.Queries.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id uuid.UUID) (database.Invoice, error)
	GetInvoiceRefByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (database.InvoiceRef, error)
	GetLatestInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (database.Invoice, error)
	GetMaxInvoiceVersion(ctx context.Context, invoiceRefID uuid.UUID) (int32, error)
	SupersedeInvoice(ctx context.Context, arg database.SupersedeInvoiceParams) (int64, error)
	CreateInvoice(ctx context.Context, arg database.CreateInvoiceParams) (database.Invoice, error)
}

// appendInvoiceVersion inserts the next version of an invoice chain as the
// latest. When supersedes is set, that version must still be the latest; it
// is flipped first so the partial unique index never sees two latest rows.
func appendInvoiceVersion(ctx context.Context, store InvoiceStore, refID uuid.UUID, params database.CreateInvoiceParams, supersedes uuid.UUID) (database.Invoice, error) {
	if supersedes != uuid.Nil {
		n, err := store.SupersedeInvoice(ctx, database.SupersedeInvoiceParams{ID: supersedes, InvoiceRefID: refID})
		if err != nil {
			if isInvoiceVersionConflict(err) {
				return database.Invoice{}, ErrInvoiceVersionConflict
			}
			return database.Invoice{}, fmt.Errorf("supersede invoice: %w", err)
		}
		if n != 1 {
			return database.Invoice{}, ErrStaleInvoice
		}
	}

	current, err := store.GetMaxInvoiceVersion(ctx, refID)
	if err != nil {
		return database.Invoice{}, fmt.Errorf("get max invoice version: %w", err)
	}

	params.InvoiceRefID = refID
	params.Version = current + 1
	inv, err := store.CreateInvoice(ctx, params)
	if err != nil {
		if isInvoiceVersionConflict(err) {
			return database.Invoice{}, ErrInvoiceVersionConflict
		}
		return database.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// lockInvoiceChain locks the order's invoice ref and returns it together
// with the invoice identified by invoiceID, which must be the latest version.
func lockInvoiceChain(ctx context.Context, store InvoiceStore, orderID, invoiceID uuid.UUID) (database.InvoiceRef, database.Invoice, error) {
	ref, err := store.GetInvoiceRefByOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.InvoiceRef{}, database.Invoice{}, ErrInvoiceNotFound
		}
		return database.InvoiceRef{}, database.Invoice{}, fmt.Errorf("lock invoice ref: %w", err)
	}

	inv, err := store.GetInvoice(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.InvoiceRef{}, database.Invoice{}, ErrInvoiceNotFound
		}
		return database.InvoiceRef{}, database.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	if inv.InvoiceRefID != ref.ID {
		return database.InvoiceRef{}, database.Invoice{}, ErrInvoiceNotFound
	}
	if !inv.IsLatestVersion {
		return database.InvoiceRef{}, database.Invoice{}, ErrStaleInvoice
	}
	return ref, inv, nil
}

// invoiceParams builds the insert params for a new version from totals and
// the pricing snapshot. Payment fields are carried from prev.
func invoiceParams(totals Totals, c Constants, discountID pgtype.UUID, discountPct decimal.NullDecimal, userID uuid.UUID, tableID pgtype.UUID, prev *database.Invoice) database.CreateInvoiceParams {
	paid := decimal.Zero
	method := pgtype.Text{}
	if prev != nil {
		paid = numericToDecimal(prev.AmountPaid)
		method = prev.PaymentMethod
	}
	status := paymentStatus(paid, totals.Total)
	return database.CreateInvoiceParams{
		Subtotal:           decimalToNumeric(totals.Subtotal),
		Total:              decimalToNumeric(totals.Total),
		TaxID:              c.TaxID,
		ServiceID:          c.ServiceID,
		DiscountID:         discountID,
		TaxRate:            rateToNumeric(c.TaxRate),
		ServiceAmount:      decimalToNumeric(c.ServiceAmount),
		DiscountPercentage: nullDecimalToNumeric(discountPct),
		PaymentMethod:      method,
		Paid:               status == database.InvoiceStatusPAID,
		AmountPaid:         decimalToNumeric(paid),
		Status:             status,
		UserID:             userID,
		TableID:            tableID,
	}
}

// --- Settlement ---

// SettleStore defines the DB methods needed to record a payment.
// Satisfied by *database.Queries.
type SettleStore interface {
	InvoiceStore
	TableStore
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// NewSettleStore creates a SettleStore from a DBTX (pool or tx).
type NewSettleStore func(db database.DBTX) SettleStore

// SettleRequest records a payment against the latest invoice of an order.
// InvoiceID is optional; when set it must be the latest version.
type SettleRequest struct {
	OrderID       uuid.UUID
	InvoiceID     string
	Amount        decimal.Decimal
	PaymentMethod string
	UserID        uuid.UUID
}

// SettleResult is the new invoice version plus the side effects on the
// order and table.
type SettleResult struct {
	Order   database.Order
	Invoice database.Invoice
	Table   *database.Table
}

// InvoiceService handles payments against versioned invoices.
type InvoiceService struct {
	pool     TxBeginner
	newStore NewSettleStore
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(pool TxBeginner, newStore NewSettleStore) *InvoiceService {
	return &InvoiceService{pool: pool, newStore: newStore}
}

// Settle appends a version carrying the accumulated amount paid. A payment
// that covers the total completes the order and moves its table to RECEIPT.
func (s *InvoiceService) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	if req.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	method, err := parsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	var invoiceID uuid.UUID
	if req.InvoiceID != "" {
		if invoiceID, err = uuid.Parse(req.InvoiceID); err != nil {
			return nil, ErrInvalidInvoiceID
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == database.OrderStatusCANCELED {
		return nil, ErrOrderClosed
	}

	if invoiceID == uuid.Nil {
		latest, err := store.GetLatestInvoiceByOrder(ctx, order.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvoiceNotFound
			}
			return nil, fmt.Errorf("get latest invoice: %w", err)
		}
		invoiceID = latest.ID
	}
	ref, current, err := lockInvoiceChain(ctx, store, order.ID, invoiceID)
	if err != nil {
		return nil, err
	}
	if current.Status == database.InvoiceStatusPAID && order.Status == database.OrderStatusCOMPLETED {
		return nil, ErrInvoiceAlreadyPaid
	}

	// A zero amount only closes an invoice with nothing left to pay, such as
	// a zero total or an update that brought the total down to the amount
	// already paid.
	total := numericToDecimal(current.Total)
	outstanding := total.Sub(numericToDecimal(current.AmountPaid))
	if req.Amount.IsZero() && outstanding.IsPositive() {
		return nil, ErrInvalidAmount
	}
	paid := numericToDecimal(current.AmountPaid).Add(req.Amount)
	if paid.GreaterThan(total) {
		return nil, ErrOverpayment
	}
	status := database.InvoiceStatusPARTIAL
	if paid.GreaterThanOrEqual(total) {
		status = database.InvoiceStatusPAID
	}

	params := database.CreateInvoiceParams{
		Subtotal:           current.Subtotal,
		Total:              current.Total,
		TaxID:              current.TaxID,
		ServiceID:          current.ServiceID,
		DiscountID:         current.DiscountID,
		TaxRate:            current.TaxRate,
		ServiceAmount:      current.ServiceAmount,
		DiscountPercentage: current.DiscountPercentage,
		PaymentMethod:      pgtype.Text{String: string(method), Valid: true},
		Paid:               status == database.InvoiceStatusPAID,
		AmountPaid:         decimalToNumeric(paid),
		Status:             status,
		UserID:             req.UserID,
		TableID:            order.TableID,
	}
	inv, err := appendInvoiceVersion(ctx, store, ref.ID, params, current.ID)
	if err != nil {
		return nil, err
	}

	result := &SettleResult{Order: order, Invoice: inv}

	if status == database.InvoiceStatusPAID {
		if order.Status != database.OrderStatusCOMPLETED {
			order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
				ID:     order.ID,
				Status: database.OrderStatusCOMPLETED,
			})
			if err != nil {
				return nil, fmt.Errorf("complete order: %w", err)
			}
			result.Order = order
		}

		if order.TableID.Valid {
			table, err := lockTable(ctx, store, uuid.UUID(order.TableID.Bytes))
			if err != nil {
				return nil, err
			}
			if table.Status == database.TableStatusOCCUPIED {
				if table, err = setTableStatus(ctx, store, table, database.TableStatusRECEIPT); err != nil {
					return nil, err
				}
			}
			result.Table = &table
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

func parsePaymentMethod(s string) (database.PaymentMethod, error) {
	switch m := database.PaymentMethod(s); m {
	case database.PaymentMethodCASH, database.PaymentMethodCARD, database.PaymentMethodTRANSFER:
		return m, nil
	}
	return "", ErrInvalidPayment
}
