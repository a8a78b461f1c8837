package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tablepos/api/internal/database"
	"github.com/tablepos/api/internal/middleware"
	"github.com/tablepos/api/internal/service"
)

// SupplyStore defines the database methods needed by supply handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SupplyStore interface {
	ListSupplies(ctx context.Context) ([]database.Supply, error)
	GetSupply(ctx context.Context, id uuid.UUID) (database.Supply, error)
	CreateSupply(ctx context.Context, arg database.CreateSupplyParams) (database.Supply, error)
	ListSupplyMovementsBySupply(ctx context.Context, arg database.ListSupplyMovementsBySupplyParams) ([]database.SupplyMovement, error)
}

// SupplyServicer defines the service methods needed by supply handlers.
// Satisfied by *service.SupplyService.
type SupplyServicer interface {
	Adjust(ctx context.Context, req service.AdjustSupplyRequest) (database.Supply, error)
}

// SupplyHandler handles stock ledger endpoints.
type SupplyHandler struct {
	store SupplyStore
	svc   SupplyServicer
}

// NewSupplyHandler creates a new SupplyHandler.
func NewSupplyHandler(store SupplyStore, svc SupplyServicer) *SupplyHandler {
	return &SupplyHandler{store: store, svc: svc}
}

// RegisterRoutes registers supply endpoints on the given Chi router.
// Expected to be mounted at /supplies
func (h *SupplyHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/movements", h.Movements)
	r.Post("/{id}/adjustments", h.Adjust)
}

// --- Request / Response types ---

type createSupplyRequest struct {
	Name              string `json:"name" validate:"required,max=255"`
	RemainingQuantity int32  `json:"remaining_quantity"`
	UnitPrice         string `json:"unit_price" validate:"omitempty,numeric"`
}

type adjustSupplyRequest struct {
	Delta  int32  `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,max=255"`
}

type supplyResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	RemainingQuantity int32     `json:"remaining_quantity"`
	UnitPrice         string    `json:"unit_price"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type movementResponse struct {
	ID            uuid.UUID `json:"id"`
	OrderID       *string   `json:"order_id"`
	QuantityDelta int32     `json:"quantity_delta"`
	Reason        string    `json:"reason"`
	CreatedBy     *string   `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSupplyResponse(s database.Supply) supplyResponse {
	return supplyResponse{
		ID:                s.ID,
		Name:              s.Name,
		RemainingQuantity: s.RemainingQuantity,
		UnitPrice:         numericToString(s.UnitPrice),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// --- Handlers ---

// List handles GET /supplies.
func (h *SupplyHandler) List(w http.ResponseWriter, r *http.Request) {
	supplies, err := h.store.ListSupplies(r.Context())
	if err != nil {
		writeInternal(w, "list supplies", err)
		return
	}

	resp := make([]supplyResponse, len(supplies))
	for i, s := range supplies {
		resp[i] = toSupplyResponse(s)
	}
	writeData(w, http.StatusOK, resp)
}

// Create handles POST /supplies.
func (h *SupplyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSupplyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	unitPrice := decimal.Zero
	if req.UnitPrice != "" {
		d, err := decimal.NewFromString(req.UnitPrice)
		if err != nil || d.IsNegative() {
			writeError(w, http.StatusBadRequest, "unit_price must be a non-negative number")
			return
		}
		unitPrice = d
	}

	supply, err := h.store.CreateSupply(r.Context(), database.CreateSupplyParams{
		Name:              strings.TrimSpace(req.Name),
		RemainingQuantity: req.RemainingQuantity,
		UnitPrice:         decimalToNumeric(unitPrice),
	})
	if err != nil {
		writeInternal(w, "create supply", err)
		return
	}

	writeData(w, http.StatusCreated, toSupplyResponse(supply))
}

// Get handles GET /supplies/{id}.
func (h *SupplyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "invalid supply ID")
	if !ok {
		return
	}

	supply, err := h.store.GetSupply(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "supply not found")
			return
		}
		writeInternal(w, "get supply", err)
		return
	}
	writeData(w, http.StatusOK, toSupplyResponse(supply))
}

// Movements handles GET /supplies/{id}/movements?limit=, newest first.
func (h *SupplyHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "invalid supply ID")
	if !ok {
		return
	}

	limit := int32(50)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = int32(n)
	}

	movements, err := h.store.ListSupplyMovementsBySupply(r.Context(), database.ListSupplyMovementsBySupplyParams{
		SupplyID: id,
		Limit:    limit,
	})
	if err != nil {
		writeInternal(w, "list supply movements", err)
		return
	}

	resp := make([]movementResponse, len(movements))
	for i, m := range movements {
		resp[i] = movementResponse{
			ID:            m.ID,
			OrderID:       optionalUUID(m.OrderID),
			QuantityDelta: m.QuantityDelta,
			Reason:        m.Reason,
			CreatedBy:     optionalUUID(m.CreatedBy),
			CreatedAt:     m.CreatedAt,
		}
	}
	writeData(w, http.StatusOK, resp)
}

// Adjust handles POST /supplies/{id}/adjustments for manual restocks and
// write-offs.
func (h *SupplyHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, ok := parseIDParam(w, r, "id", "invalid supply ID")
	if !ok {
		return
	}

	var req adjustSupplyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	supply, err := h.svc.Adjust(r.Context(), service.AdjustSupplyRequest{
		SupplyID: id,
		Delta:    req.Delta,
		Reason:   req.Reason,
		UserID:   claims.UserID,
	})
	if err != nil {
		writeServiceError(w, "adjust supply", err)
		return
	}

	writeData(w, http.StatusOK, toSupplyResponse(supply))
}
