package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tablepos/api/internal/database"
)

// ConstantsStore is the subset of queries used to replace the pricing constants.
type ConstantsStore interface {
	GetConstants(ctx context.Context) (database.GetConstantsRow, error)
	CreateTax(ctx context.Context, arg database.CreateTaxParams) (database.Tax, error)
	CreateService(ctx context.Context, arg database.CreateServiceParams) (database.Service, error)
	SetConstants(ctx context.Context, arg database.SetConstantsParams) error
}

// NewConstantsStore builds a ConstantsStore bound to a connection or transaction.
type NewConstantsStore func(db database.DBTX) ConstantsStore

// SetConstantsRequest replaces the current tax rate and service charge.
type SetConstantsRequest struct {
	TaxName       string
	TaxRate       decimal.Decimal
	ServiceName   string
	ServiceAmount decimal.Decimal
}

// ConstantsService reads and replaces the pricing constants. Replacing them
// inserts new tax and service rows, so invoices keep pointing at the rows
// that priced them.
type ConstantsService struct {
	pool     TxBeginner
	newStore NewConstantsStore
}

// NewConstantsService creates a new ConstantsService.
func NewConstantsService(pool TxBeginner, newStore NewConstantsStore) *ConstantsService {
	return &ConstantsService{pool: pool, newStore: newStore}
}

// Get returns the current constants. A missing row reads as zero.
func (s *ConstantsService) Get(ctx context.Context) (Constants, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Constants{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck
	return loadConstants(ctx, s.newStore(tx))
}

// Set replaces both constants in one transaction.
func (s *ConstantsService) Set(ctx context.Context, req SetConstantsRequest) (Constants, error) {
	if req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(decimal.NewFromInt(1)) || req.ServiceAmount.IsNegative() {
		return Constants{}, ErrInvalidConstants
	}
	taxName := strings.TrimSpace(req.TaxName)
	if taxName == "" {
		taxName = "Tax"
	}
	serviceName := strings.TrimSpace(req.ServiceName)
	if serviceName == "" {
		serviceName = "Service"
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Constants{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck
	store := s.newStore(tx)

	tax, err := store.CreateTax(ctx, database.CreateTaxParams{Name: taxName, Rate: rateToNumeric(req.TaxRate)})
	if err != nil {
		return Constants{}, fmt.Errorf("create tax: %w", err)
	}
	svc, err := store.CreateService(ctx, database.CreateServiceParams{Name: serviceName, Amount: decimalToNumeric(req.ServiceAmount)})
	if err != nil {
		return Constants{}, fmt.Errorf("create service: %w", err)
	}
	if err := store.SetConstants(ctx, database.SetConstantsParams{
		TaxID:     pgtype.UUID{Bytes: tax.ID, Valid: true},
		ServiceID: pgtype.UUID{Bytes: svc.ID, Valid: true},
	}); err != nil {
		return Constants{}, fmt.Errorf("set constants: %w", err)
	}

	c, err := loadConstants(ctx, store)
	if err != nil {
		return Constants{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Constants{}, fmt.Errorf("commit tx: %w", err)
	}
	return c, nil
}
