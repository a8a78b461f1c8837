package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablepos/api/internal/database"
	"github.com/tablepos/api/internal/middleware"
	"github.com/tablepos/api/internal/service"
	"github.com/tablepos/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	UpdateOrder(ctx context.Context, req service.UpdateOrderRequest) (*service.OrderResult, error)
	CancelOrder(ctx context.Context, req service.CancelOrderRequest) (*service.OrderResult, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) (*service.OrderResult, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	OrderDetailStore
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	GetLatestInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (database.Invoice, error)
}

// Broadcaster pushes live events to the floor clients of a section.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Publish(sectionID uuid.UUID, eventType string, payload any)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc    OrderServicer
	store  OrderStore
	events Broadcaster
}

// NewOrderHandler creates a new OrderHandler. events may be nil.
func NewOrderHandler(svc OrderServicer, store OrderStore, events Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, events: events}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders. createMW wraps only POST /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router, createMW ...func(http.Handler) http.Handler) {
	r.With(createMW...).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/cancel", h.Cancel)
	r.With(middleware.RequireRole(string(database.UserRoleADMIN))).Delete("/{id}", h.Delete)
	r.Get("/{id}/invoice", h.LatestInvoice)
	r.Get("/{id}/invoices", h.Invoices)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableID    string             `json:"table_id" validate:"omitempty,uuid"`
	DiscountID string             `json:"discount_id" validate:"omitempty,uuid"`
	Items      []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type orderItemRequest struct {
	ID         string `json:"id" validate:"omitempty,uuid"`
	MenuItemID string `json:"menu_item_id" validate:"omitempty,uuid"`
	Quantity   int32  `json:"quantity" validate:"gte=1,lte=10000"`
	Notes      string `json:"notes" validate:"max=500"`
}

type updateOrderRequest struct {
	InvoiceID string             `json:"invoice_id" validate:"required,uuid"`
	Status    string             `json:"status" validate:"omitempty,oneof=PENDING PREPARING SERVED COMPLETED"`
	Reason    string             `json:"reason" validate:"max=255"`
	Items     []orderItemRequest `json:"items" validate:"required,dive"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type orderResponse struct {
	ID                 uuid.UUID `json:"id"`
	TableID            *string   `json:"table_id"`
	UserID             uuid.UUID `json:"user_id"`
	Status             string    `json:"status"`
	CancellationReason *string   `json:"cancellation_reason"`
	CanceledBy         *string   `json:"canceled_by"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Title      string    `json:"title"`
	Quantity   int32     `json:"quantity"`
	Price      string    `json:"price"`
	Notes      *string   `json:"notes"`
	SortOrder  int32     `json:"sort_order"`
}

type deletedItemResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderItemID uuid.UUID `json:"order_item_id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	MenuItemID  uuid.UUID `json:"menu_item_id"`
	Title       string    `json:"title"`
	Quantity    int32     `json:"quantity"`
	Price       string    `json:"price"`
	Notes       *string   `json:"notes"`
	Reason      string    `json:"reason"`
	DeletedBy   *string   `json:"deleted_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type invoiceResponse struct {
	ID                 uuid.UUID `json:"id"`
	InvoiceRefID       uuid.UUID `json:"invoice_ref_id"`
	Version            int32     `json:"version"`
	IsLatestVersion    bool      `json:"is_latest_version"`
	Subtotal           string    `json:"subtotal"`
	Total              string    `json:"total"`
	TaxID              *string   `json:"tax_id"`
	TaxRate            string    `json:"tax_rate"`
	ServiceID          *string   `json:"service_id"`
	ServiceAmount      string    `json:"service_amount"`
	DiscountID         *string   `json:"discount_id"`
	DiscountPercentage *string   `json:"discount_percentage"`
	PaymentMethod      *string   `json:"payment_method"`
	Paid               bool      `json:"paid"`
	AmountPaid         string    `json:"amount_paid"`
	Status             string    `json:"status"`
	UserID             uuid.UUID `json:"user_id"`
	TableID            *string   `json:"table_id"`
	CreatedAt          time.Time `json:"created_at"`
}

// orderDetailResponse is an order with its lines, removed lines and latest
// invoice. Reads also fill the invoice chain and the creating user.
type orderDetailResponse struct {
	Order        orderResponse         `json:"order"`
	Items        []orderItemResponse   `json:"items"`
	DeletedItems []deletedItemResponse `json:"deleted_items"`
	Invoice      *invoiceResponse      `json:"invoice"`
	Invoices     []invoiceResponse     `json:"invoices,omitempty"`
	Versioned    bool                  `json:"versioned"`
	Table        *tableResponse        `json:"table,omitempty"`
	User         *userResponse         `json:"user,omitempty"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		TableID:    req.TableID,
		DiscountID: req.DiscountID,
		UserID:     claims.UserID,
		Items:      toItemInputs(req.Items),
	})
	if err != nil {
		writeServiceError(w, "create order", err)
		return
	}

	resp := toOrderDetailResponse(result)
	h.publish(result.Table, ws.EventOrderCreated, resp)
	h.publishTable(result.Table)
	writeData(w, http.StatusCreated, resp)
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	params := database.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		if !database.OrderStatus(s).Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("table_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid table_id")
			return
		}
		params.TableID = pgtype.UUID{Bytes: id, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		writeInternal(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeData(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "id", "invalid order ID")
	if !ok {
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternal(w, "get order", err)
		return
	}

	resp, err := loadOrderDetail(r.Context(), h.store, order)
	if err != nil {
		writeInternal(w, "get order", err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// Update handles PUT /orders/{id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID, ok := parseIDParam(w, r, "id", "invalid order ID")
	if !ok {
		return
	}

	var req updateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.UpdateOrder(r.Context(), service.UpdateOrderRequest{
		OrderID:   orderID,
		InvoiceID: req.InvoiceID,
		Status:    req.Status,
		Reason:    req.Reason,
		UserID:    claims.UserID,
		Items:     toItemInputs(req.Items),
	})
	if err != nil {
		writeServiceError(w, "update order", err)
		return
	}

	resp := toOrderDetailResponse(result)
	h.publish(result.Table, ws.EventOrderUpdated, resp)
	writeData(w, http.StatusOK, resp)
}

// Cancel handles POST /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID, ok := parseIDParam(w, r, "id", "invalid order ID")
	if !ok {
		return
	}

	var req cancelOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.CancelOrder(r.Context(), service.CancelOrderRequest{
		OrderID: orderID,
		UserID:  claims.UserID,
		Reason:  req.Reason,
	})
	if err != nil {
		writeServiceError(w, "cancel order", err)
		return
	}

	resp := toOrderDetailResponse(result)
	h.publish(result.Table, ws.EventOrderCanceled, resp)
	h.publishTable(result.Table)
	writeData(w, http.StatusOK, resp)
}

// Delete handles DELETE /orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "id", "invalid order ID")
	if !ok {
		return
	}

	result, err := h.svc.DeleteOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, "delete order", err)
		return
	}

	h.publish(result.Table, ws.EventOrderDeleted, map[string]uuid.UUID{"id": orderID})
	h.publishTable(result.Table)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "order deleted"})
}

// LatestInvoice handles GET /orders/{id}/invoice. The invoice is returned
// with its order, lines, table and creator for receipt printing.
func (h *OrderHandler) LatestInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "id", "invalid order ID")
	if !ok {
		return
	}

	inv, err := h.store.GetLatestInvoiceByOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeInternal(w, "get latest invoice", err)
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		writeInternal(w, "get order", err)
		return
	}
	detail, err := loadOrderDetail(r.Context(), h.store, order)
	if err != nil {
		writeInternal(w, "get latest invoice", err)
		return
	}
	writeData(w, http.StatusOK, receiptResponse{Invoice: toInvoiceResponse(inv), Order: detail})
}

// Invoices handles GET /orders/{id}/invoices, newest version first.
func (h *OrderHandler) Invoices(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "id", "invalid order ID")
	if !ok {
		return
	}

	invoices, err := h.store.ListInvoicesByOrder(r.Context(), orderID)
	if err != nil {
		writeInternal(w, "list invoices", err)
		return
	}

	resp := make([]invoiceResponse, len(invoices))
	for i, inv := range invoices {
		resp[i] = toInvoiceResponse(inv)
	}
	writeData(w, http.StatusOK, resp)
}

// --- Events ---

func (h *OrderHandler) publish(table *database.Table, eventType string, payload any) {
	publish(h.events, table, eventType, payload)
}

func (h *OrderHandler) publishTable(table *database.Table) {
	if table != nil {
		publish(h.events, table, ws.EventTableStatusChanged, toTableResponse(*table))
	}
}

// publish sends an event to the section of table. Orders without a table
// have no room and are not broadcast.
func publish(events Broadcaster, table *database.Table, eventType string, payload any) {
	if events == nil || table == nil {
		return
	}
	events.Publish(table.SectionID, eventType, payload)
}

// --- Helpers ---

func parseIDParam(w http.ResponseWriter, r *http.Request, name, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, msg)
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

func toItemInputs(items []orderItemRequest) []service.OrderItemInput {
	out := make([]service.OrderItemInput, len(items))
	for i, it := range items {
		out[i] = service.OrderItemInput{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Notes:      it.Notes,
		}
	}
	return out
}

func toOrderDetailResponse(result *service.OrderResult) orderDetailResponse {
	resp := orderDetailResponse{
		Order:        toOrderResponse(result.Order),
		Items:        toOrderItemResponses(result.Items),
		DeletedItems: toDeletedItemResponses(result.DeletedItems),
		Versioned:    result.Versioned,
	}
	if result.Invoice.ID != uuid.Nil {
		ir := toInvoiceResponse(result.Invoice)
		resp.Invoice = &ir
	}
	if result.Table != nil {
		tr := toTableResponse(*result.Table)
		resp.Table = &tr
	}
	return resp
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:                 o.ID,
		TableID:            optionalUUID(o.TableID),
		UserID:             o.UserID,
		Status:             string(o.Status),
		CancellationReason: optionalText(o.CancellationReason),
		CanceledBy:         optionalUUID(o.CanceledBy),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toOrderItemResponses(items []database.OrderItem) []orderItemResponse {
	out := make([]orderItemResponse, len(items))
	for i, it := range items {
		out[i] = orderItemResponse{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Title:      it.Title,
			Quantity:   it.Quantity,
			Price:      numericToString(it.Price),
			Notes:      optionalText(it.Notes),
			SortOrder:  it.SortOrder,
		}
	}
	return out
}

func toDeletedItemResponses(items []database.DeletedOrderItem) []deletedItemResponse {
	out := make([]deletedItemResponse, len(items))
	for i, it := range items {
		out[i] = deletedItemResponse{
			ID:          it.ID,
			OrderItemID: it.OrderItemID,
			InvoiceID:   it.InvoiceID,
			MenuItemID:  it.MenuItemID,
			Title:       it.Title,
			Quantity:    it.Quantity,
			Price:       numericToString(it.Price),
			Notes:       optionalText(it.Notes),
			Reason:      it.Reason,
			DeletedBy:   optionalUUID(it.DeletedBy),
			CreatedAt:   it.CreatedAt,
		}
	}
	return out
}

func toInvoiceResponse(inv database.Invoice) invoiceResponse {
	rate, _ := numericToDecimal(inv.TaxRate)
	return invoiceResponse{
		ID:                 inv.ID,
		InvoiceRefID:       inv.InvoiceRefID,
		Version:            inv.Version,
		IsLatestVersion:    inv.IsLatestVersion,
		Subtotal:           numericToString(inv.Subtotal),
		Total:              numericToString(inv.Total),
		TaxID:              optionalUUID(inv.TaxID),
		TaxRate:            rate.StringFixed(4),
		ServiceID:          optionalUUID(inv.ServiceID),
		ServiceAmount:      numericToString(inv.ServiceAmount),
		DiscountID:         optionalUUID(inv.DiscountID),
		DiscountPercentage: optionalNumeric(inv.DiscountPercentage),
		PaymentMethod:      optionalText(inv.PaymentMethod),
		Paid:               inv.Paid,
		AmountPaid:         numericToString(inv.AmountPaid),
		Status:             string(inv.Status),
		UserID:             inv.UserID,
		TableID:            optionalUUID(inv.TableID),
		CreatedAt:          inv.CreatedAt,
	}
}
