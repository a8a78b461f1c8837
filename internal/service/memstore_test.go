package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablepos/api/internal/database"
)

// memState is the full contents of the fake database.
type memState struct {
	seq          int64
	tables       map[uuid.UUID]database.Table
	menuItems    map[uuid.UUID]database.MenuItem
	supplies     map[uuid.UUID]database.Supply
	movements    []database.SupplyMovement
	discounts    map[uuid.UUID]database.Discount
	constants    database.GetConstantsRow
	taxes        map[uuid.UUID]database.Tax
	services     map[uuid.UUID]database.Service
	orders       map[uuid.UUID]database.Order
	orderItems   map[uuid.UUID]database.OrderItem
	deletedItems []database.DeletedOrderItem
	refs         map[uuid.UUID]database.InvoiceRef
	invoices     map[uuid.UUID]database.Invoice
}

func (s *memState) clone() *memState {
	c := *s
	c.tables = cloneMap(s.tables)
	c.menuItems = cloneMap(s.menuItems)
	c.supplies = cloneMap(s.supplies)
	c.movements = append([]database.SupplyMovement(nil), s.movements...)
	c.discounts = cloneMap(s.discounts)
	c.taxes = cloneMap(s.taxes)
	c.services = cloneMap(s.services)
	c.orders = cloneMap(s.orders)
	c.orderItems = cloneMap(s.orderItems)
	c.deletedItems = append([]database.DeletedOrderItem(nil), s.deletedItems...)
	c.refs = cloneMap(s.refs)
	c.invoices = cloneMap(s.invoices)
	return &c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// memDB is an in-memory stand-in for PostgreSQL. Begin snapshots the state
// and a Rollback without Commit restores it, so failed operations leave no
// trace just like a real transaction.
type memDB struct {
	state    *memState
	beginErr error
	// failOn makes the named store method return failErr.
	failOn  string
	failErr error
}

func newMemDB() *memDB {
	return &memDB{state: &memState{
		tables:     map[uuid.UUID]database.Table{},
		menuItems:  map[uuid.UUID]database.MenuItem{},
		supplies:   map[uuid.UUID]database.Supply{},
		discounts:  map[uuid.UUID]database.Discount{},
		taxes:      map[uuid.UUID]database.Tax{},
		services:   map[uuid.UUID]database.Service{},
		orders:     map[uuid.UUID]database.Order{},
		orderItems: map[uuid.UUID]database.OrderItem{},
		refs:       map[uuid.UUID]database.InvoiceRef{},
		invoices:   map[uuid.UUID]database.Invoice{},
	}}
}

func (m *memDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &memTx{db: m, snapshot: m.state.clone()}, nil
}

func (m *memDB) fail(method string) error {
	if m.failOn == method {
		return m.failErr
	}
	return nil
}

func (m *memDB) next() time.Time {
	m.state.seq++
	return time.Unix(1700000000+m.state.seq, 0)
}

// memTx implements pgx.Tx. Only Commit and Rollback are used by services.
type memTx struct {
	db        *memDB
	snapshot  *memState
	committed bool
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *memTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}
func (t *memTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.db.state = t.snapshot
	}
	return nil
}
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *memTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (t *memTx) Conn() *pgx.Conn { panic("not implemented") }

// --- Store methods ---

func (m *memDB) FindSupplyByName(ctx context.Context, name string) (database.Supply, error) {
	var matches []database.Supply
	for _, s := range m.state.supplies {
		if strings.EqualFold(s.Name, name) {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return database.Supply{}, pgx.ErrNoRows
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID.String() < matches[j].ID.String()
	})
	return matches[0], nil
}

func (m *memDB) AdjustSupplyQuantity(ctx context.Context, arg database.AdjustSupplyQuantityParams) (database.Supply, error) {
	if err := m.fail("AdjustSupplyQuantity"); err != nil {
		return database.Supply{}, err
	}
	s, ok := m.state.supplies[arg.ID]
	if !ok {
		return database.Supply{}, pgx.ErrNoRows
	}
	s.RemainingQuantity += arg.Delta
	m.state.supplies[arg.ID] = s
	return s, nil
}

func (m *memDB) CreateSupplyMovement(ctx context.Context, arg database.CreateSupplyMovementParams) (database.SupplyMovement, error) {
	mv := database.SupplyMovement{
		ID:            uuid.New(),
		SupplyID:      arg.SupplyID,
		OrderID:       arg.OrderID,
		QuantityDelta: arg.QuantityDelta,
		Reason:        arg.Reason,
		CreatedBy:     arg.CreatedBy,
		CreatedAt:     m.next(),
	}
	m.state.movements = append(m.state.movements, mv)
	return mv, nil
}

func (m *memDB) GetInvoice(ctx context.Context, id uuid.UUID) (database.Invoice, error) {
	inv, ok := m.state.invoices[id]
	if !ok {
		return database.Invoice{}, pgx.ErrNoRows
	}
	return inv, nil
}

func (m *memDB) GetInvoiceRefByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (database.InvoiceRef, error) {
	for _, r := range m.state.refs {
		if r.OrderID == orderID {
			return r, nil
		}
	}
	return database.InvoiceRef{}, pgx.ErrNoRows
}

func (m *memDB) GetLatestInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (database.Invoice, error) {
	ref, err := m.GetInvoiceRefByOrderForUpdate(ctx, orderID)
	if err != nil {
		return database.Invoice{}, err
	}
	for _, inv := range m.state.invoices {
		if inv.InvoiceRefID == ref.ID && inv.IsLatestVersion {
			return inv, nil
		}
	}
	return database.Invoice{}, pgx.ErrNoRows
}

func (m *memDB) GetMaxInvoiceVersion(ctx context.Context, invoiceRefID uuid.UUID) (int32, error) {
	var max int32
	for _, inv := range m.state.invoices {
		if inv.InvoiceRefID == invoiceRefID && inv.Version > max {
			max = inv.Version
		}
	}
	return max, nil
}

func (m *memDB) SupersedeInvoice(ctx context.Context, arg database.SupersedeInvoiceParams) (int64, error) {
	inv, ok := m.state.invoices[arg.ID]
	if !ok || inv.InvoiceRefID != arg.InvoiceRefID || !inv.IsLatestVersion {
		return 0, nil
	}
	inv.IsLatestVersion = false
	m.state.invoices[arg.ID] = inv
	return 1, nil
}

// CreateInvoice enforces the same two unique constraints as the schema.
func (m *memDB) CreateInvoice(ctx context.Context, arg database.CreateInvoiceParams) (database.Invoice, error) {
	if err := m.fail("CreateInvoice"); err != nil {
		return database.Invoice{}, err
	}
	for _, inv := range m.state.invoices {
		if inv.InvoiceRefID != arg.InvoiceRefID {
			continue
		}
		if inv.Version == arg.Version {
			return database.Invoice{}, &pgconn.PgError{Code: "23505", ConstraintName: "invoices_ref_version_key"}
		}
		if inv.IsLatestVersion {
			return database.Invoice{}, &pgconn.PgError{Code: "23505", ConstraintName: "invoices_ref_latest_key"}
		}
	}
	inv := database.Invoice{
		ID:                 uuid.New(),
		InvoiceRefID:       arg.InvoiceRefID,
		Version:            arg.Version,
		IsLatestVersion:    true,
		Subtotal:           arg.Subtotal,
		Total:              arg.Total,
		TaxID:              arg.TaxID,
		ServiceID:          arg.ServiceID,
		DiscountID:         arg.DiscountID,
		TaxRate:            arg.TaxRate,
		ServiceAmount:      arg.ServiceAmount,
		DiscountPercentage: arg.DiscountPercentage,
		PaymentMethod:      arg.PaymentMethod,
		Paid:               arg.Paid,
		AmountPaid:         arg.AmountPaid,
		Status:             arg.Status,
		UserID:             arg.UserID,
		TableID:            arg.TableID,
		CreatedAt:          m.next(),
	}
	m.state.invoices[inv.ID] = inv
	return inv, nil
}

func (m *memDB) GetTable(ctx context.Context, id uuid.UUID) (database.Table, error) {
	t, ok := m.state.tables[id]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memDB) GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.Table, error) {
	return m.GetTable(ctx, id)
}

func (m *memDB) UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error) {
	if err := m.fail("UpdateTableStatus"); err != nil {
		return database.Table{}, err
	}
	t, ok := m.state.tables[arg.ID]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	t.Status = arg.Status
	m.state.tables[arg.ID] = t
	return t, nil
}

func (m *memDB) CountOpenOrdersByTable(ctx context.Context, tableID pgtype.UUID) (int64, error) {
	var n int64
	for _, o := range m.state.orders {
		if o.TableID == tableID && !isClosed(o.Status) {
			n++
		}
	}
	return n, nil
}

func (m *memDB) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	mi, ok := m.state.menuItems[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return mi, nil
}

func (m *memDB) GetDiscount(ctx context.Context, id uuid.UUID) (database.Discount, error) {
	d, ok := m.state.discounts[id]
	if !ok {
		return database.Discount{}, pgx.ErrNoRows
	}
	return d, nil
}

func (m *memDB) GetConstants(ctx context.Context) (database.GetConstantsRow, error) {
	return m.state.constants, nil
}

func (m *memDB) CreateTax(ctx context.Context, arg database.CreateTaxParams) (database.Tax, error) {
	if err := m.fail("CreateTax"); err != nil {
		return database.Tax{}, err
	}
	t := database.Tax{ID: uuid.New(), Name: arg.Name, Rate: arg.Rate, CreatedAt: m.next()}
	m.state.taxes[t.ID] = t
	return t, nil
}

func (m *memDB) CreateService(ctx context.Context, arg database.CreateServiceParams) (database.Service, error) {
	if err := m.fail("CreateService"); err != nil {
		return database.Service{}, err
	}
	sv := database.Service{ID: uuid.New(), Name: arg.Name, Amount: arg.Amount, CreatedAt: m.next()}
	m.state.services[sv.ID] = sv
	return sv, nil
}

func (m *memDB) SetConstants(ctx context.Context, arg database.SetConstantsParams) error {
	if err := m.fail("SetConstants"); err != nil {
		return err
	}
	row := database.GetConstantsRow{TaxID: arg.TaxID, ServiceID: arg.ServiceID}
	if t, ok := m.state.taxes[arg.TaxID.Bytes]; arg.TaxID.Valid && ok {
		row.TaxName = pgtype.Text{String: t.Name, Valid: true}
		row.TaxRate = t.Rate
	}
	if sv, ok := m.state.services[arg.ServiceID.Bytes]; arg.ServiceID.Valid && ok {
		row.ServiceName = pgtype.Text{String: sv.Name, Valid: true}
		row.ServiceAmount = sv.Amount
	}
	row.UpdatedAt = pgtype.Timestamptz{Time: m.next(), Valid: true}
	m.state.constants = row
	return nil
}

func (m *memDB) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	now := m.next()
	o := database.Order{
		ID:        uuid.New(),
		TableID:   arg.TableID,
		UserID:    arg.UserID,
		Status:    database.OrderStatusPENDING,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.state.orders[o.ID] = o
	return o, nil
}

func (m *memDB) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.state.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memDB) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	o, ok := m.state.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	m.state.orders[arg.ID] = o
	return o, nil
}

func (m *memDB) CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
	o, ok := m.state.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = database.OrderStatusCANCELED
	o.TableID = pgtype.UUID{}
	o.CancellationReason = pgtype.Text{String: arg.Reason, Valid: true}
	o.CanceledBy = arg.CanceledBy
	m.state.orders[arg.ID] = o
	return o, nil
}

// DeleteOrder cascades like the schema: items, archived items, ref and invoices.
func (m *memDB) DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := m.state.orders[id]; !ok {
		return 0, nil
	}
	delete(m.state.orders, id)
	for itemID, it := range m.state.orderItems {
		if it.OrderID == id {
			delete(m.state.orderItems, itemID)
		}
	}
	kept := m.state.deletedItems[:0]
	for _, d := range m.state.deletedItems {
		if d.OrderID != id {
			kept = append(kept, d)
		}
	}
	m.state.deletedItems = kept
	for refID, r := range m.state.refs {
		if r.OrderID != id {
			continue
		}
		delete(m.state.refs, refID)
		for invID, inv := range m.state.invoices {
			if inv.InvoiceRefID == refID {
				delete(m.state.invoices, invID)
			}
		}
	}
	for i, mv := range m.state.movements {
		if mv.OrderID.Valid && uuid.UUID(mv.OrderID.Bytes) == id {
			m.state.movements[i].OrderID = pgtype.UUID{}
		}
	}
	return 1, nil
}

func (m *memDB) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	it := database.OrderItem{
		ID:         uuid.New(),
		OrderID:    arg.OrderID,
		MenuItemID: arg.MenuItemID,
		Title:      arg.Title,
		Quantity:   arg.Quantity,
		Price:      arg.Price,
		Notes:      arg.Notes,
		SortOrder:  arg.SortOrder,
		CreatedAt:  m.next(),
	}
	m.state.orderItems[it.ID] = it
	return it, nil
}

func (m *memDB) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	items := []database.OrderItem{}
	for _, it := range m.state.orderItems {
		if it.OrderID == orderID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (m *memDB) UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error) {
	it, ok := m.state.orderItems[arg.ID]
	if !ok {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	it.Quantity = arg.Quantity
	it.Notes = arg.Notes
	it.SortOrder = arg.SortOrder
	m.state.orderItems[arg.ID] = it
	return it, nil
}

func (m *memDB) DeleteOrderItem(ctx context.Context, arg database.DeleteOrderItemParams) error {
	if it, ok := m.state.orderItems[arg.ID]; ok && it.OrderID == arg.OrderID {
		delete(m.state.orderItems, arg.ID)
	}
	return nil
}

func (m *memDB) CreateDeletedOrderItem(ctx context.Context, arg database.CreateDeletedOrderItemParams) (database.DeletedOrderItem, error) {
	d := database.DeletedOrderItem{
		ID:          uuid.New(),
		OrderItemID: arg.OrderItemID,
		OrderID:     arg.OrderID,
		InvoiceID:   arg.InvoiceID,
		MenuItemID:  arg.MenuItemID,
		Title:       arg.Title,
		Quantity:    arg.Quantity,
		Price:       arg.Price,
		Notes:       arg.Notes,
		Reason:      arg.Reason,
		DeletedBy:   arg.DeletedBy,
		CreatedAt:   m.next(),
	}
	m.state.deletedItems = append(m.state.deletedItems, d)
	return d, nil
}

func (m *memDB) CreateInvoiceRef(ctx context.Context, orderID uuid.UUID) (database.InvoiceRef, error) {
	r := database.InvoiceRef{ID: uuid.New(), OrderID: orderID, CreatedAt: m.next()}
	m.state.refs[r.ID] = r
	return r, nil
}

// --- Fixtures ---

func (m *memDB) addTable(status database.TableStatus) database.Table {
	t := database.Table{ID: uuid.New(), SectionID: uuid.New(), Name: "T1", Capacity: 4, Status: status}
	m.state.tables[t.ID] = t
	return t
}

func (m *memDB) addSupply(name string, qty int32) database.Supply {
	s := database.Supply{ID: uuid.New(), Name: name, RemainingQuantity: qty, CreatedAt: m.next()}
	m.state.supplies[s.ID] = s
	return s
}

func (m *memDB) addMenuItem(title, price string, supplyID *uuid.UUID) database.MenuItem {
	mi := database.MenuItem{ID: uuid.New(), Title: title, Price: makeNumeric(price), IsActive: true}
	if supplyID != nil {
		mi.SupplyID = pgtype.UUID{Bytes: *supplyID, Valid: true}
	}
	m.state.menuItems[mi.ID] = mi
	return mi
}

func (m *memDB) setConstants(rate, service string) {
	m.state.constants = database.GetConstantsRow{
		TaxID:         pgtype.UUID{Bytes: uuid.New(), Valid: true},
		TaxRate:       makeNumeric(rate),
		ServiceID:     pgtype.UUID{Bytes: uuid.New(), Valid: true},
		ServiceAmount: makeNumeric(service),
	}
}

func (m *memDB) latestInvoices(refID uuid.UUID) []database.Invoice {
	var out []database.Invoice
	for _, inv := range m.state.invoices {
		if inv.InvoiceRefID == refID && inv.IsLatestVersion {
			out = append(out, inv)
		}
	}
	return out
}

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}
