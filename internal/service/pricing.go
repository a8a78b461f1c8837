package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tablepos/api/internal/database"
)

var hundred = decimal.NewFromInt(100)

// Constants is the pricing input snapshotted onto every invoice version.
type Constants struct {
	TaxID         pgtype.UUID
	TaxRate       decimal.Decimal
	ServiceID     pgtype.UUID
	ServiceAmount decimal.Decimal
}

// Totals is the computed amount pair stored on an invoice.
type Totals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

type pricedLine struct {
	price    decimal.Decimal
	quantity int32
}

type constantsReader interface {
	GetConstants(ctx context.Context) (database.GetConstantsRow, error)
}

func loadConstants(ctx context.Context, store constantsReader) (Constants, error) {
	row, err := store.GetConstants(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Constants{}, nil
		}
		return Constants{}, fmt.Errorf("get constants: %w", err)
	}
	return Constants{
		TaxID:         row.TaxID,
		TaxRate:       numericToDecimal(row.TaxRate),
		ServiceID:     row.ServiceID,
		ServiceAmount: numericToDecimal(row.ServiceAmount),
	}, nil
}

// calculateTotals computes subtotal = sum(price * quantity) and
// total = (subtotal + service + subtotal*rate) less the discount percentage,
// rounded half away from zero to cents and never below zero.
func calculateTotals(lines []pricedLine, c Constants, discountPct decimal.NullDecimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.price.Mul(decimal.NewFromInt32(l.quantity)))
	}

	gross := subtotal.Add(c.ServiceAmount).Add(subtotal.Mul(c.TaxRate))
	total := gross
	if discountPct.Valid {
		total = gross.Sub(gross.Mul(discountPct.Decimal).Div(hundred))
	}

	total = total.Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{Subtotal: subtotal.Round(2), Total: total}
}

// paymentStatus derives the invoice status from what has been paid so far.
// Nothing paid reads as PENDING even for a zero total; Settle closes those.
func paymentStatus(paid, total decimal.Decimal) database.InvoiceStatus {
	switch {
	case paid.IsZero():
		return database.InvoiceStatusPENDING
	case paid.GreaterThanOrEqual(total):
		return database.InvoiceStatusPAID
	default:
		return database.InvoiceStatusPARTIAL
	}
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func numericToNullDecimal(n pgtype.Numeric) decimal.NullDecimal {
	if !n.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(numericToDecimal(n))
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// rateToNumeric keeps the four decimal places of a tax rate.
func rateToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(4))
	return n
}

func nullDecimalToNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{}
	}
	return decimalToNumeric(d.Decimal)
}
