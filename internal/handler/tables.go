package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablepos/api/internal/database"
	"github.com/tablepos/api/internal/ws"
)

// TableStore defines the database methods needed by table handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	OrderDetailStore
	ListTables(ctx context.Context, sectionID pgtype.UUID) ([]database.Table, error)
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
	ListOrdersByTable(ctx context.Context, tableID pgtype.UUID) ([]database.Order, error)
	GetLatestOrderByTable(ctx context.Context, tableID pgtype.UUID) (database.Order, error)
}

// TableServicer defines the service methods needed by table handlers.
// Satisfied by *service.TableService.
type TableServicer interface {
	Release(ctx context.Context, tableID uuid.UUID) (database.Table, error)
}

// TableHandler handles floor table endpoints.
type TableHandler struct {
	store  TableStore
	svc    TableServicer
	events Broadcaster
}

// NewTableHandler creates a new TableHandler. events may be nil.
func NewTableHandler(store TableStore, svc TableServicer, events Broadcaster) *TableHandler {
	return &TableHandler{store: store, svc: svc, events: events}
}

// RegisterRoutes registers table endpoints on the given Chi router.
// Expected to be mounted at /tables
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/orders", h.Orders)
	r.Get("/{id}/orders/latest", h.LatestOrder)
	r.Post("/{id}/release", h.Release)
}

// --- Request / Response types ---

type createTableRequest struct {
	SectionID string `json:"section_id" validate:"required,uuid"`
	Name      string `json:"name" validate:"required,max=64"`
	Capacity  int32  `json:"capacity" validate:"omitempty,gte=1,lte=100"`
}

type tableResponse struct {
	ID        uuid.UUID `json:"id"`
	SectionID uuid.UUID `json:"section_id"`
	Name      string    `json:"name"`
	Capacity  int32     `json:"capacity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTableResponse(t database.Table) tableResponse {
	return tableResponse{
		ID:        t.ID,
		SectionID: t.SectionID,
		Name:      t.Name,
		Capacity:  t.Capacity,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// --- Handlers ---

// List handles GET /tables, optionally filtered by ?section_id=.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	var sectionID pgtype.UUID
	if s := r.URL.Query().Get("section_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid section_id")
			return
		}
		sectionID = pgtype.UUID{Bytes: id, Valid: true}
	}

	tables, err := h.store.ListTables(r.Context(), sectionID)
	if err != nil {
		writeInternal(w, "list tables", err)
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	writeData(w, http.StatusOK, resp)
}

// Create handles POST /tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	capacity := req.Capacity
	if capacity == 0 {
		capacity = 4
	}

	table, err := h.store.CreateTable(r.Context(), database.CreateTableParams{
		SectionID: uuid.MustParse(req.SectionID),
		Name:      req.Name,
		Capacity:  capacity,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "section not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "table name already exists in section")
			return
		}
		writeInternal(w, "create table", err)
		return
	}

	writeData(w, http.StatusCreated, toTableResponse(table))
}

// Get handles GET /tables/{id}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "invalid table ID")
	if !ok {
		return
	}

	table, err := h.store.GetTable(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "table not found")
			return
		}
		writeInternal(w, "get table", err)
		return
	}
	writeData(w, http.StatusOK, toTableResponse(table))
}

// Orders handles GET /tables/{id}/orders, newest first, each with its
// lines and invoice chain.
func (h *TableHandler) Orders(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "invalid table ID")
	if !ok {
		return
	}

	orders, err := h.store.ListOrdersByTable(r.Context(), pgtype.UUID{Bytes: id, Valid: true})
	if err != nil {
		writeInternal(w, "list orders by table", err)
		return
	}

	resp := make([]orderDetailResponse, len(orders))
	for i, o := range orders {
		if resp[i], err = loadOrderDetail(r.Context(), h.store, o); err != nil {
			writeInternal(w, "list orders by table", err)
			return
		}
	}
	writeData(w, http.StatusOK, resp)
}

// LatestOrder handles GET /tables/{id}/orders/latest.
func (h *TableHandler) LatestOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "invalid table ID")
	if !ok {
		return
	}

	order, err := h.store.GetLatestOrderByTable(r.Context(), pgtype.UUID{Bytes: id, Valid: true})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no orders for table")
			return
		}
		writeInternal(w, "get latest order by table", err)
		return
	}

	resp, err := loadOrderDetail(r.Context(), h.store, order)
	if err != nil {
		writeInternal(w, "get latest order by table", err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

// Release handles POST /tables/{id}/release.
func (h *TableHandler) Release(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "invalid table ID")
	if !ok {
		return
	}

	table, err := h.svc.Release(r.Context(), id)
	if err != nil {
		writeServiceError(w, "release table", err)
		return
	}

	resp := toTableResponse(table)
	publish(h.events, &table, ws.EventTableStatusChanged, resp)
	writeData(w, http.StatusOK, resp)
}
