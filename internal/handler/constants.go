package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/tablepos/api/internal/service"
)

// ConstantsServicer defines the service methods needed by constants handlers.
// Satisfied by *service.ConstantsService.
type ConstantsServicer interface {
	Get(ctx context.Context) (service.Constants, error)
	Set(ctx context.Context, req service.SetConstantsRequest) (service.Constants, error)
}

// ConstantsHandler exposes the tax rate and service charge used for pricing.
type ConstantsHandler struct {
	svc ConstantsServicer
}

// NewConstantsHandler creates a new ConstantsHandler.
func NewConstantsHandler(svc ConstantsServicer) *ConstantsHandler {
	return &ConstantsHandler{svc: svc}
}

// RegisterRoutes registers constants endpoints on the given Chi router.
// Expected to be mounted at /constants. writeMW guards PUT.
func (h *ConstantsHandler) RegisterRoutes(r chi.Router, writeMW ...func(http.Handler) http.Handler) {
	r.Get("/", h.Get)
	r.With(writeMW...).Put("/", h.Set)
}

type setConstantsRequest struct {
	TaxName       string `json:"tax_name" validate:"max=64"`
	TaxRate       string `json:"tax_rate" validate:"required,numeric"`
	ServiceName   string `json:"service_name" validate:"max=64"`
	ServiceAmount string `json:"service_amount" validate:"required,numeric"`
}

type constantsResponse struct {
	TaxID         *string `json:"tax_id"`
	TaxRate       string  `json:"tax_rate"`
	ServiceID     *string `json:"service_id"`
	ServiceAmount string  `json:"service_amount"`
}

func toConstantsResponse(c service.Constants) constantsResponse {
	return constantsResponse{
		TaxID:         optionalUUID(c.TaxID),
		TaxRate:       c.TaxRate.StringFixed(4),
		ServiceID:     optionalUUID(c.ServiceID),
		ServiceAmount: c.ServiceAmount.StringFixed(2),
	}
}

// Get handles GET /constants.
func (h *ConstantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context())
	if err != nil {
		writeInternal(w, "get constants", err)
		return
	}
	writeData(w, http.StatusOK, toConstantsResponse(c))
}

// Set handles PUT /constants. Existing invoices keep the values they were
// priced with; only invoice versions created afterwards pick up the change.
func (h *ConstantsHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setConstantsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rate, err := decimal.NewFromString(req.TaxRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tax_rate")
		return
	}
	amount, err := decimal.NewFromString(req.ServiceAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service_amount")
		return
	}

	c, err := h.svc.Set(r.Context(), service.SetConstantsRequest{
		TaxName:       req.TaxName,
		TaxRate:       rate,
		ServiceName:   req.ServiceName,
		ServiceAmount: amount,
	})
	if err != nil {
		writeServiceError(w, "set constants", err)
		return
	}
	writeData(w, http.StatusOK, toConstantsResponse(c))
}
