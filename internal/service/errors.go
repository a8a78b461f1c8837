package service

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Every service error unwraps to exactly one of these so the
// HTTP layer can map it with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrBusinessRule = errors.New("business rule violated")
	ErrConflict     = errors.New("conflict")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Errors returned by the order, invoice, table, supply and constants services.
var (
	ErrEmptyItems          = newError(ErrValidation, "items are required")
	ErrInvalidQuantity     = newError(ErrValidation, "quantity must be between 1 and 10000")
	ErrQuantityTooLarge    = newError(ErrValidation, "total quantity for a supply is too large")
	ErrInvalidMenuItemID   = newError(ErrValidation, "invalid menu_item_id")
	ErrInvalidOrderItemID  = newError(ErrValidation, "invalid order item id")
	ErrInvalidTableID      = newError(ErrValidation, "invalid table_id")
	ErrInvalidDiscountID   = newError(ErrValidation, "invalid discount_id")
	ErrInvalidInvoiceID    = newError(ErrValidation, "invalid invoice_id")
	ErrInvalidStatus       = newError(ErrValidation, "invalid status")
	ErrUnknownOrderItem    = newError(ErrValidation, "order item does not belong to this order")
	ErrDuplicateOrderItem  = newError(ErrValidation, "order item listed more than once")
	ErrMenuItemUnavailable = newError(ErrValidation, "menu item is not active")
	ErrCancelReasonMissing = newError(ErrValidation, "cancellation reason is required")
	ErrInvalidAmount       = newError(ErrValidation, "amount must be greater than zero while a balance is outstanding")
	ErrInvalidPayment      = newError(ErrValidation, "invalid payment_method")
	ErrInvalidAdjustment   = newError(ErrValidation, "delta must be non-zero and reason is required")
	// ErrInvalidConstants rejects a tax rate outside [0, 1] or a negative service amount.
	ErrInvalidConstants    = newError(ErrValidation, "tax_rate must be between 0 and 1 and service_amount must not be negative")

	ErrOrderNotFound    = newError(ErrNotFound, "order not found")
	ErrMenuItemNotFound = newError(ErrNotFound, "menu item not found")
	ErrTableNotFound    = newError(ErrNotFound, "table not found")
	ErrDiscountNotFound = newError(ErrNotFound, "discount not found")
	ErrInvoiceNotFound  = newError(ErrNotFound, "invoice not found")
	ErrSupplyNotFound   = newError(ErrNotFound, "supply not found")

	ErrTableNotAvailable       = newError(ErrBusinessRule, "table is not available")
	ErrTableNotOccupied        = newError(ErrBusinessRule, "cannot cancel receipted or available orders")
	ErrTableHasOpenOrders      = newError(ErrBusinessRule, "table still has open orders")
	ErrInvalidTableTransition  = newError(ErrBusinessRule, "invalid table status transition")
	ErrOrderClosed             = newError(ErrBusinessRule, "order is canceled or completed")
	ErrInvalidStatusTransition = newError(ErrBusinessRule, "invalid order status transition")
	ErrDiscountInactive        = newError(ErrBusinessRule, "discount is not active")
	ErrInvoiceAlreadyPaid      = newError(ErrBusinessRule, "invoice is already paid")
	ErrOverpayment             = newError(ErrBusinessRule, "payment exceeds outstanding amount")
	ErrTotalBelowPaid          = newError(ErrBusinessRule, "new total is below the amount already paid")

	ErrStaleInvoice           = newError(ErrConflict, "invoice is not the latest version")
	ErrInvoiceVersionConflict = newError(ErrConflict, "invoice version was taken by a concurrent update, retry")
)

// isInvoiceVersionConflict reports a unique violation on either invoice
// version constraint (pgconn error code 23505).
func isInvoiceVersionConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" &&
			(pgErr.ConstraintName == "invoices_ref_version_key" || pgErr.ConstraintName == "invoices_ref_latest_key")
	}
	return false
}
