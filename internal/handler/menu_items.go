package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tablepos/api/internal/database"
)

// MenuItemStore defines the database methods needed by menu item handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuItemStore interface {
	ListMenuItems(ctx context.Context, activeOnly bool) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
}

// MenuItemHandler handles menu item endpoints.
type MenuItemHandler struct {
	store MenuItemStore
}

// NewMenuItemHandler creates a new MenuItemHandler.
func NewMenuItemHandler(store MenuItemStore) *MenuItemHandler {
	return &MenuItemHandler{store: store}
}

// RegisterRoutes registers menu item endpoints on the given Chi router.
// Expected to be mounted at /menu-items
func (h *MenuItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Price    string `json:"price" validate:"required,numeric"`
	SupplyID string `json:"supply_id" validate:"omitempty,uuid"`
	IsActive *bool  `json:"is_active"`
}

type menuItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Price     string    `json:"price"`
	SupplyID  *string   `json:"supply_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:        m.ID,
		Title:     m.Title,
		Price:     numericToString(m.Price),
		SupplyID:  optionalUUID(m.SupplyID),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// --- Handlers ---

// List handles GET /menu-items. Pass ?all=true to include inactive items.
func (h *MenuItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context(), r.URL.Query().Get("all") != "true")
	if err != nil {
		writeInternal(w, "list menu items", err)
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeData(w, http.StatusOK, resp)
}

// Create handles POST /menu-items.
func (h *MenuItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	price, supplyID, ok := parseMenuItemFields(w, req)
	if !ok {
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Title:    req.Title,
		Price:    price,
		SupplyID: supplyID,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "supply not found")
			return
		}
		writeInternal(w, "create menu item", err)
		return
	}

	writeData(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update handles PUT /menu-items/{id}. Price changes never touch existing
// order lines, which keep the price captured when they were added.
func (h *MenuItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "invalid menu item ID")
	if !ok {
		return
	}

	var req menuItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	price, supplyID, ok := parseMenuItemFields(w, req)
	if !ok {
		return
	}

	current, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeInternal(w, "get menu item", err)
		return
	}
	active := current.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:       id,
		Title:    req.Title,
		Price:    price,
		SupplyID: supplyID,
		IsActive: active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "supply not found")
			return
		}
		writeInternal(w, "update menu item", err)
		return
	}

	writeData(w, http.StatusOK, toMenuItemResponse(item))
}

// --- Helpers ---

func parseMenuItemFields(w http.ResponseWriter, req menuItemRequest) (pgtype.Numeric, pgtype.UUID, bool) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, "price must be a non-negative number")
		return pgtype.Numeric{}, pgtype.UUID{}, false
	}
	var supplyID pgtype.UUID
	if req.SupplyID != "" {
		supplyID = pgtype.UUID{Bytes: uuid.MustParse(req.SupplyID), Valid: true}
	}
	return decimalToNumeric(price), supplyID, true
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
