package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tablepos/api/internal/database"
)

const defaultDeletionReason = "removed from order"

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order workflow.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	InventoryStore
	InvoiceStore
	TableStore
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetDiscount(ctx context.Context, id uuid.UUID) (database.Discount, error)
	GetConstants(ctx context.Context) (database.GetConstantsRow, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, arg database.DeleteOrderItemParams) error
	CreateDeletedOrderItem(ctx context.Context, arg database.CreateDeletedOrderItemParams) (database.DeletedOrderItem, error)
	CreateInvoiceRef(ctx context.Context, orderID uuid.UUID) (database.InvoiceRef, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the input for creating an order.
type CreateOrderRequest struct {
	TableID    string
	DiscountID string
	UserID     uuid.UUID
	Items      []OrderItemInput
}

// MaxItemQuantity caps the quantity of a single order line.
const MaxItemQuantity = 10000

// OrderItemInput is a single line of an order. ID is empty for new lines
// and set for lines that already exist on the order.
type OrderItemInput struct {
	ID         string
	MenuItemID string
	Quantity   int32
	Notes      string
}

// UpdateOrderRequest carries the complete new item list of an order and the
// invoice version the client was looking at.
type UpdateOrderRequest struct {
	OrderID   uuid.UUID
	InvoiceID string
	Status    string
	Reason    string
	UserID    uuid.UUID
	Items     []OrderItemInput
}

// CancelOrderRequest is the input for canceling an order.
type CancelOrderRequest struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	Reason  string
}

// OrderResult is an order after a write, with its current items and latest invoice.
type OrderResult struct {
	Order        database.Order
	Items        []database.OrderItem
	Invoice      database.Invoice
	DeletedItems []database.DeletedOrderItem
	Versioned    bool
	Table        *database.Table
}

// OrderService handles the order lifecycle.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// parsedItem is an OrderItemInput with its IDs parsed.
type parsedItem struct {
	id         uuid.UUID
	menuItemID uuid.UUID
	quantity   int32
	notes      pgtype.Text
}

// CreateOrder prices the items, consumes stock, opens invoice version 1 and
// occupies the table, all in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	items, err := parseItems(req.Items, false)
	if err != nil {
		return nil, err
	}
	tableID, err := parseOptionalUUID(req.TableID, ErrInvalidTableID)
	if err != nil {
		return nil, err
	}
	discountID, err := parseOptionalUUID(req.DiscountID, ErrInvalidDiscountID)
	if err != nil {
		return nil, err
	}

	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Table must be free ---
	var table *database.Table
	if tableID.Valid {
		t, err := lockTable(ctx, store, uuid.UUID(tableID.Bytes))
		if err != nil {
			return nil, err
		}
		if t.Status != database.TableStatusAVAILABLE {
			return nil, ErrTableNotAvailable
		}
		table = &t
	}

	// --- Resolve menu items ---
	menuItems := make([]database.MenuItem, len(items))
	for i, it := range items {
		mi, err := activeMenuItem(ctx, store, it.menuItemID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		menuItems[i] = mi
	}

	discountPct, err := loadDiscount(ctx, store, discountID)
	if err != nil {
		return nil, err
	}

	// --- Insert order + items ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TableID: tableID,
		UserID:  req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created := make([]database.OrderItem, 0, len(items))
	lines := make([]pricedLine, 0, len(items))
	usage := supplyUsage{}
	resolver := newSupplyResolver(store)
	for i, it := range items {
		mi := menuItems[i]
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    order.ID,
			MenuItemID: mi.ID,
			Title:      mi.Title,
			Quantity:   it.quantity,
			Price:      mi.Price,
			Notes:      it.notes,
			SortOrder:  int32(i),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, item)
		lines = append(lines, pricedLine{price: numericToDecimal(mi.Price), quantity: it.quantity})
		if err := resolver.add(ctx, usage, mi, it.quantity); err != nil {
			return nil, err
		}
	}

	// --- Consume stock ---
	deltas, err := usageDelta(nil, usage)
	if err != nil {
		return nil, err
	}
	if err := applySupplyDeltas(ctx, store, deltas, movement{
		orderID: pgtype.UUID{Bytes: order.ID, Valid: true},
		actor:   pgtype.UUID{Bytes: req.UserID, Valid: true},
		reason:  movementOrderCreated,
	}); err != nil {
		return nil, err
	}

	// --- Invoice version 1 ---
	constants, err := loadConstants(ctx, store)
	if err != nil {
		return nil, err
	}
	totals := calculateTotals(lines, constants, discountPct)

	ref, err := store.CreateInvoiceRef(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("create invoice ref: %w", err)
	}
	inv, err := appendInvoiceVersion(ctx, store, ref.ID,
		invoiceParams(totals, constants, discountID, discountPct, req.UserID, tableID, nil), uuid.Nil)
	if err != nil {
		return nil, err
	}

	// --- Occupy table (last write) ---
	if table != nil {
		t, err := setTableStatus(ctx, store, *table, database.TableStatusOCCUPIED)
		if err != nil {
			return nil, err
		}
		table = &t
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{
		Order:        order,
		Items:        created,
		Invoice:      inv,
		DeletedItems: []database.DeletedOrderItem{},
		Versioned:    true,
		Table:        table,
	}, nil
}

// UpdateOrder diffs the submitted item list against the stored one. Removed
// lines are archived against the superseded invoice, stock is moved by the
// net difference, and a new invoice version is appended. When the item set
// is unchanged only the status is applied and no version is created.
func (s *OrderService) UpdateOrder(ctx context.Context, req UpdateOrderRequest) (*OrderResult, error) {
	items, err := parseItems(req.Items, true)
	if err != nil {
		return nil, err
	}
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return nil, ErrInvalidInvoiceID
	}
	var status database.OrderStatus
	if req.Status != "" {
		if status, err = parseOrderStatus(req.Status); err != nil {
			return nil, err
		}
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultDeletionReason
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Lock order and invoice chain ---
	order, err := lockOrder(ctx, store, req.OrderID)
	if err != nil {
		return nil, err
	}
	if isClosed(order.Status) {
		return nil, ErrOrderClosed
	}
	ref, current, err := lockInvoiceChain(ctx, store, order.ID, invoiceID)
	if err != nil {
		return nil, err
	}

	// --- Partition items ---
	old, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	oldByID := make(map[uuid.UUID]database.OrderItem, len(old))
	for _, it := range old {
		oldByID[it.ID] = it
	}

	kept := make(map[uuid.UUID]bool, len(items))
	changed := false
	for i, it := range items {
		if it.id == uuid.Nil {
			changed = true
			continue
		}
		prev, ok := oldByID[it.id]
		if !ok {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrUnknownOrderItem)
		}
		kept[it.id] = true
		if prev.Quantity != it.quantity || prev.Notes != it.notes {
			changed = true
		}
	}
	if len(kept) != len(old) {
		changed = true
	}

	if status != "" && status != order.Status {
		if err := validateStatusTransition(order.Status, status); err != nil {
			return nil, err
		}
	}

	result := &OrderResult{DeletedItems: []database.DeletedOrderItem{}, Invoice: current}

	if changed {
		resolver := newSupplyResolver(store)
		before := supplyUsage{}
		after := supplyUsage{}
		menuByID := make(map[uuid.UUID]database.MenuItem)
		menuItem := func(id uuid.UUID) (database.MenuItem, error) {
			if mi, ok := menuByID[id]; ok {
				return mi, nil
			}
			mi, err := store.GetMenuItem(ctx, id)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return database.MenuItem{}, ErrMenuItemNotFound
				}
				return database.MenuItem{}, fmt.Errorf("get menu item: %w", err)
			}
			menuByID[id] = mi
			return mi, nil
		}

		for _, it := range old {
			mi, err := menuItem(it.MenuItemID)
			if err != nil {
				return nil, err
			}
			if err := resolver.add(ctx, before, mi, it.Quantity); err != nil {
				return nil, err
			}
		}

		// --- Deleted lines ---
		for _, it := range old {
			if kept[it.ID] {
				continue
			}
			if err := store.DeleteOrderItem(ctx, database.DeleteOrderItemParams{ID: it.ID, OrderID: order.ID}); err != nil {
				return nil, fmt.Errorf("delete order item: %w", err)
			}
			archived, err := store.CreateDeletedOrderItem(ctx, database.CreateDeletedOrderItemParams{
				OrderItemID: it.ID,
				OrderID:     order.ID,
				InvoiceID:   current.ID,
				MenuItemID:  it.MenuItemID,
				Title:       it.Title,
				Quantity:    it.Quantity,
				Price:       it.Price,
				Notes:       it.Notes,
				Reason:      reason,
				DeletedBy:   pgtype.UUID{Bytes: req.UserID, Valid: true},
			})
			if err != nil {
				return nil, fmt.Errorf("archive order item: %w", err)
			}
			result.DeletedItems = append(result.DeletedItems, archived)
		}

		// --- Kept and added lines ---
		lines := make([]pricedLine, 0, len(items))
		for i, it := range items {
			if it.id != uuid.Nil {
				prev := oldByID[it.id]
				if prev.Quantity != it.quantity || prev.Notes != it.notes || prev.SortOrder != int32(i) {
					if _, err := store.UpdateOrderItem(ctx, database.UpdateOrderItemParams{
						ID:        prev.ID,
						Quantity:  it.quantity,
						Notes:     it.notes,
						SortOrder: int32(i),
					}); err != nil {
						return nil, fmt.Errorf("update order item: %w", err)
					}
				}
				if err := resolver.add(ctx, after, menuByID[prev.MenuItemID], it.quantity); err != nil {
					return nil, err
				}
				lines = append(lines, pricedLine{price: numericToDecimal(prev.Price), quantity: it.quantity})
				continue
			}

			mi, err := menuItem(it.menuItemID)
			if err != nil {
				return nil, fmt.Errorf("item[%d]: %w", i, err)
			}
			if !mi.IsActive {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemUnavailable)
			}
			if _, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
				OrderID:    order.ID,
				MenuItemID: mi.ID,
				Title:      mi.Title,
				Quantity:   it.quantity,
				Price:      mi.Price,
				Notes:      it.notes,
				SortOrder:  int32(i),
			}); err != nil {
				return nil, fmt.Errorf("create order item: %w", err)
			}
			if err := resolver.add(ctx, after, mi, it.quantity); err != nil {
				return nil, err
			}
			lines = append(lines, pricedLine{price: numericToDecimal(mi.Price), quantity: it.quantity})
		}

		// --- Move stock by the net difference ---
		deltas, err := usageDelta(before, after)
		if err != nil {
			return nil, err
		}
		if err := applySupplyDeltas(ctx, store, deltas, movement{
			orderID: pgtype.UUID{Bytes: order.ID, Valid: true},
			actor:   pgtype.UUID{Bytes: req.UserID, Valid: true},
			reason:  movementOrderUpdated,
		}); err != nil {
			return nil, err
		}

		// --- New invoice version ---
		constants, err := loadConstants(ctx, store)
		if err != nil {
			return nil, err
		}
		discountPct := numericToNullDecimal(current.DiscountPercentage)
		totals := calculateTotals(lines, constants, discountPct)
		if totals.Total.LessThan(numericToDecimal(current.AmountPaid)) {
			return nil, ErrTotalBelowPaid
		}
		inv, err := appendInvoiceVersion(ctx, store, ref.ID,
			invoiceParams(totals, constants, current.DiscountID, discountPct, req.UserID, order.TableID, &current), current.ID)
		if err != nil {
			return nil, err
		}
		result.Invoice = inv
		result.Versioned = true
	} else {
		for i, it := range items {
			if prev := oldByID[it.id]; prev.SortOrder != int32(i) {
				if _, err := store.UpdateOrderItem(ctx, database.UpdateOrderItemParams{
					ID:        prev.ID,
					Quantity:  prev.Quantity,
					Notes:     prev.Notes,
					SortOrder: int32(i),
				}); err != nil {
					return nil, fmt.Errorf("update order item: %w", err)
				}
			}
		}
	}

	// --- Status ---
	if status != "" && status != order.Status {
		if order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{ID: order.ID, Status: status}); err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
	}
	result.Order = order

	if result.Items, err = store.ListOrderItemsByOrder(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	if order.TableID.Valid {
		table, err := store.GetTable(ctx, uuid.UUID(order.TableID.Bytes))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get table: %w", err)
		}
		if err == nil {
			result.Table = &table
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// CancelOrder closes an order seated at an OCCUPIED table and frees the
// table. Stock is not returned and the invoice chain is kept.
func (s *OrderService) CancelOrder(ctx context.Context, req CancelOrderRequest) (*OrderResult, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrCancelReasonMissing
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
	if isClosed(order.Status) {
		return nil, ErrOrderClosed
	}

	var table *database.Table
	if order.TableID.Valid {
		t, err := lockTable(ctx, store, uuid.UUID(order.TableID.Bytes))
		if err != nil {
			return nil, err
		}
		if t.Status != database.TableStatusOCCUPIED {
			return nil, ErrTableNotOccupied
		}
		table = &t
	}

	order, err = store.CancelOrder(ctx, database.CancelOrderParams{
		ID:         order.ID,
		Reason:     reason,
		CanceledBy: pgtype.UUID{Bytes: req.UserID, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if table != nil {
		t, err := setTableStatus(ctx, store, *table, database.TableStatusAVAILABLE)
		if err != nil {
			return nil, err
		}
		table = &t
	}

	inv, err := store.GetLatestInvoiceByOrder(ctx, order.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get latest invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &OrderResult{Order: order, Invoice: inv, DeletedItems: []database.DeletedOrderItem{}, Table: table}, nil
}

// DeleteOrder removes an order and everything hanging off it. A table the
// order was occupying is freed once no other open order remains on it.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) (*OrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, orderID)
	if err != nil {
		return nil, err
	}

	var table *database.Table
	if order.TableID.Valid {
		t, err := lockTable(ctx, store, uuid.UUID(order.TableID.Bytes))
		if err != nil && !errors.Is(err, ErrTableNotFound) {
			return nil, err
		}
		if err == nil {
			table = &t
		}
	}

	n, err := store.DeleteOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return nil, ErrOrderNotFound
	}

	if table != nil && table.Status == database.TableStatusOCCUPIED {
		open, err := store.CountOpenOrdersByTable(ctx, order.TableID)
		if err != nil {
			return nil, fmt.Errorf("count open orders: %w", err)
		}
		if open == 0 {
			t, err := setTableStatus(ctx, store, *table, database.TableStatusAVAILABLE)
			if err != nil {
				return nil, err
			}
			table = &t
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &OrderResult{Order: order, DeletedItems: []database.DeletedOrderItem{}, Table: table}, nil
}

// --- Status transitions ---

// allowedTransitions defines the kitchen flow. CANCELED is reached only
// through CancelOrder.
var allowedTransitions = map[database.OrderStatus][]database.OrderStatus{
	database.OrderStatusPENDING:   {database.OrderStatusPREPARING, database.OrderStatusSERVED, database.OrderStatusCOMPLETED},
	database.OrderStatusPREPARING: {database.OrderStatusSERVED, database.OrderStatusCOMPLETED},
	database.OrderStatusSERVED:    {database.OrderStatusCOMPLETED},
}

func validateStatusTransition(from, to database.OrderStatus) error {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidStatusTransition)
}

func parseOrderStatus(s string) (database.OrderStatus, error) {
	switch st := database.OrderStatus(s); st {
	case database.OrderStatusPENDING, database.OrderStatusPREPARING,
		database.OrderStatusSERVED, database.OrderStatusCOMPLETED:
		return st, nil
	}
	return "", ErrInvalidStatus
}

func isClosed(s database.OrderStatus) bool {
	return s == database.OrderStatusCANCELED || s == database.OrderStatusCOMPLETED
}

// --- Helpers ---

type orderLocker interface {
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
}

func lockOrder(ctx context.Context, store orderLocker, id uuid.UUID) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("lock order: %w", err)
	}
	return order, nil
}

func activeMenuItem(ctx context.Context, store OrderStore, id uuid.UUID) (database.MenuItem, error) {
	mi, err := store.GetMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MenuItem{}, ErrMenuItemNotFound
		}
		return database.MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	if !mi.IsActive {
		return database.MenuItem{}, ErrMenuItemUnavailable
	}
	return mi, nil
}

func loadDiscount(ctx context.Context, store OrderStore, id pgtype.UUID) (decimal.NullDecimal, error) {
	if !id.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := store.GetDiscount(ctx, uuid.UUID(id.Bytes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.NullDecimal{}, ErrDiscountNotFound
		}
		return decimal.NullDecimal{}, fmt.Errorf("get discount: %w", err)
	}
	if !d.IsActive {
		return decimal.NullDecimal{}, ErrDiscountInactive
	}
	return numericToNullDecimal(d.Percentage), nil
}

// parseItems validates quantities and IDs before any transaction starts.
// allowExisting permits lines that reference an existing order item by ID.
func parseItems(in []OrderItemInput, allowExisting bool) ([]parsedItem, error) {
	out := make([]parsedItem, len(in))
	seen := make(map[uuid.UUID]bool)
	for i, it := range in {
		if it.Quantity < 1 || it.Quantity > MaxItemQuantity {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		p := parsedItem{quantity: it.Quantity}
		if it.Notes != "" {
			p.notes = pgtype.Text{String: it.Notes, Valid: true}
		}

		if allowExisting && it.ID != "" {
			id, err := uuid.Parse(it.ID)
			if err != nil {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidOrderItemID)
			}
			if seen[id] {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrDuplicateOrderItem)
			}
			seen[id] = true
			p.id = id
			out[i] = p
			continue
		}

		mid, err := uuid.Parse(it.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidMenuItemID)
		}
		p.menuItemID = mid
		out[i] = p
	}
	return out, nil
}

func parseOptionalUUID(s string, invalid error) (pgtype.UUID, error) {
	if s == "" {
		return pgtype.UUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, invalid
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}
