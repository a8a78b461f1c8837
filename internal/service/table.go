package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablepos/api/internal/database"
)

// allowedTableTransitions drives table occupancy. Orders move a table from
// AVAILABLE to OCCUPIED, settlement moves it to RECEIPT, and cancel, delete
// or release return it to AVAILABLE.
var allowedTableTransitions = map[database.TableStatus][]database.TableStatus{
	database.TableStatusAVAILABLE: {database.TableStatusOCCUPIED},
	database.TableStatusOCCUPIED:  {database.TableStatusAVAILABLE, database.TableStatusRECEIPT},
	database.TableStatusRECEIPT:   {database.TableStatusAVAILABLE},
}

func validateTableTransition(from, to database.TableStatus) error {
	for _, s := range allowedTableTransitions[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTableTransition)
}

// TableStore defines the DB methods for reading and flipping table status.
// Satisfied by *database.Queries.
type TableStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.Table, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error)
	CountOpenOrdersByTable(ctx context.Context, tableID pgtype.UUID) (int64, error)
}

// NewTableStore creates a TableStore from a DBTX (pool or tx).
type NewTableStore func(db database.DBTX) TableStore

func lockTable(ctx context.Context, store TableStore, id uuid.UUID) (database.Table, error) {
	table, err := store.GetTableForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Table{}, ErrTableNotFound
		}
		return database.Table{}, fmt.Errorf("lock table: %w", err)
	}
	return table, nil
}

func setTableStatus(ctx context.Context, store TableStore, table database.Table, to database.TableStatus) (database.Table, error) {
	if table.Status == to {
		return table, nil
	}
	if err := validateTableTransition(table.Status, to); err != nil {
		return database.Table{}, err
	}
	updated, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{ID: table.ID, Status: to})
	if err != nil {
		return database.Table{}, fmt.Errorf("update table status: %w", err)
	}
	return updated, nil
}

// TableService handles table occupancy outside the order workflow.
type TableService struct {
	pool     TxBeginner
	newStore NewTableStore
}

// NewTableService creates a new TableService.
func NewTableService(pool TxBeginner, newStore NewTableStore) *TableService {
	return &TableService{pool: pool, newStore: newStore}
}

// Release clears a table after the guests leave. RECEIPT tables are always
// released; OCCUPIED tables only when no open order still holds them.
func (s *TableService) Release(ctx context.Context, tableID uuid.UUID) (database.Table, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Table{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := lockTable(ctx, store, tableID)
	if err != nil {
		return database.Table{}, err
	}

	if table.Status == database.TableStatusOCCUPIED {
		open, err := store.CountOpenOrdersByTable(ctx, pgtype.UUID{Bytes: tableID, Valid: true})
		if err != nil {
			return database.Table{}, fmt.Errorf("count open orders: %w", err)
		}
		if open > 0 {
			return database.Table{}, ErrTableHasOpenOrders
		}
	}

	table, err = setTableStatus(ctx, store, table, database.TableStatusAVAILABLE)
	if err != nil {
		return database.Table{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Table{}, fmt.Errorf("commit tx: %w", err)
	}
	return table, nil
}
