package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablepos/api/internal/database"
)

const (
	movementOrderCreated = "order created"
	movementOrderUpdated = "order updated"
)

// InventoryStore defines the DB methods for moving supply quantities.
// Satisfied by *database.Queries.
type InventoryStore interface {
	FindSupplyByName(ctx context.Context, name string) (database.Supply, error)
	AdjustSupplyQuantity(ctx context.Context, arg database.AdjustSupplyQuantityParams) (database.Supply, error)
	CreateSupplyMovement(ctx context.Context, arg database.CreateSupplyMovementParams) (database.SupplyMovement, error)
}

// supplyResolver maps menu items to the supply they consume. The explicit
// menu_items.supply_id wins; otherwise the oldest supply whose name equals
// the menu item title (case-insensitive) is used. Items with neither are
// not stock-tracked.
type supplyResolver struct {
	store InventoryStore
	cache map[uuid.UUID]uuid.UUID
}

func newSupplyResolver(store InventoryStore) *supplyResolver {
	return &supplyResolver{store: store, cache: make(map[uuid.UUID]uuid.UUID)}
}

func (r *supplyResolver) resolve(ctx context.Context, mi database.MenuItem) (uuid.UUID, error) {
	if id, ok := r.cache[mi.ID]; ok {
		return id, nil
	}
	id := uuid.Nil
	if mi.SupplyID.Valid {
		id = uuid.UUID(mi.SupplyID.Bytes)
	} else {
		supply, err := r.store.FindSupplyByName(ctx, mi.Title)
		switch {
		case err == nil:
			id = supply.ID
		case !errors.Is(err, pgx.ErrNoRows):
			return uuid.Nil, fmt.Errorf("find supply for %q: %w", mi.Title, err)
		}
	}
	r.cache[mi.ID] = id
	return id, nil
}

// supplyUsage is the quantity of each supply consumed by a set of order
// lines. Sums are kept in int64 so many lines on one supply cannot wrap.
type supplyUsage map[uuid.UUID]int64

func (r *supplyResolver) add(ctx context.Context, usage supplyUsage, mi database.MenuItem, quantity int32) error {
	id, err := r.resolve(ctx, mi)
	if err != nil {
		return err
	}
	if id != uuid.Nil {
		usage[id] += int64(quantity)
	}
	return nil
}

// usageDelta returns before - after per supply: positive values go back to
// stock, negative values are consumed. A delta outside the int32 range of
// the quantity column is rejected.
func usageDelta(before, after supplyUsage) (map[uuid.UUID]int32, error) {
	sum := make(map[uuid.UUID]int64)
	for id, q := range before {
		sum[id] += q
	}
	for id, q := range after {
		sum[id] -= q
	}

	delta := make(map[uuid.UUID]int32, len(sum))
	for id, d := range sum {
		if d < math.MinInt32 || d > math.MaxInt32 {
			return nil, ErrQuantityTooLarge
		}
		delta[id] = int32(d)
	}
	return delta, nil
}

type movement struct {
	orderID pgtype.UUID
	actor   pgtype.UUID
	reason  string
}

// applySupplyDeltas writes each non-zero delta as a single increment and a
// ledger row. Supplies are visited in ID order so concurrent orders lock
// rows in the same sequence.
func applySupplyDeltas(ctx context.Context, store InventoryStore, deltas map[uuid.UUID]int32, m movement) error {
	ids := make([]uuid.UUID, 0, len(deltas))
	for id, d := range deltas {
		if d != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	for _, id := range ids {
		if _, err := adjustSupply(ctx, store, id, deltas[id], m); err != nil {
			return err
		}
	}
	return nil
}

func adjustSupply(ctx context.Context, store InventoryStore, id uuid.UUID, delta int32, m movement) (database.Supply, error) {
	supply, err := store.AdjustSupplyQuantity(ctx, database.AdjustSupplyQuantityParams{ID: id, Delta: delta})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Supply{}, ErrSupplyNotFound
		}
		return database.Supply{}, fmt.Errorf("adjust supply %s: %w", id, err)
	}
	if supply.RemainingQuantity < 0 {
		log.Printf("WARN: supply %s (%s) below zero: %d", supply.Name, supply.ID, supply.RemainingQuantity)
	}

	if _, err := store.CreateSupplyMovement(ctx, database.CreateSupplyMovementParams{
		SupplyID:      id,
		OrderID:       m.orderID,
		QuantityDelta: delta,
		Reason:        m.reason,
		CreatedBy:     m.actor,
	}); err != nil {
		return database.Supply{}, fmt.Errorf("record supply movement: %w", err)
	}
	return supply, nil
}

// --- Manual adjustments ---

// NewInventoryStore creates an InventoryStore from a DBTX (pool or tx).
type NewInventoryStore func(db database.DBTX) InventoryStore

// AdjustSupplyRequest is a stock correction entered by staff.
type AdjustSupplyRequest struct {
	SupplyID uuid.UUID
	Delta    int32
	Reason   string
	UserID   uuid.UUID
}

// SupplyService records manual stock corrections.
type SupplyService struct {
	pool     TxBeginner
	newStore NewInventoryStore
}

// NewSupplyService creates a new SupplyService.
func NewSupplyService(pool TxBeginner, newStore NewInventoryStore) *SupplyService {
	return &SupplyService{pool: pool, newStore: newStore}
}

// Adjust applies delta to the supply and writes a ledger row in one transaction.
func (s *SupplyService) Adjust(ctx context.Context, req AdjustSupplyRequest) (database.Supply, error) {
	reason := strings.TrimSpace(req.Reason)
	if req.Delta == 0 || reason == "" {
		return database.Supply{}, ErrInvalidAdjustment
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Supply{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	supply, err := adjustSupply(ctx, s.newStore(tx), req.SupplyID, req.Delta, movement{
		actor:  pgtype.UUID{Bytes: req.UserID, Valid: true},
		reason: reason,
	})
	if err != nil {
		return database.Supply{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Supply{}, fmt.Errorf("commit tx: %w", err)
	}
	return supply, nil
}
