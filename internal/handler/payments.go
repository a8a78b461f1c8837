package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/tablepos/api/internal/middleware"
	"github.com/tablepos/api/internal/service"
	"github.com/tablepos/api/internal/ws"
)

// InvoiceServicer defines the service methods needed by payment handlers.
// Satisfied by *service.InvoiceService.
type InvoiceServicer interface {
	Settle(ctx context.Context, req service.SettleRequest) (*service.SettleResult, error)
}

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	svc    InvoiceServicer
	events Broadcaster
}

// NewPaymentHandler creates a new PaymentHandler. events may be nil.
func NewPaymentHandler(svc InvoiceServicer, events Broadcaster) *PaymentHandler {
	return &PaymentHandler{svc: svc, events: events}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /orders/{id}/payments
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Add)
}

// --- Request / Response types ---

type addPaymentRequest struct {
	InvoiceID     string `json:"invoice_id" validate:"omitempty,uuid"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=CASH CARD TRANSFER"`
	Amount        string `json:"amount" validate:"required,numeric"`
}

type settleResponse struct {
	Order   orderResponse   `json:"order"`
	Invoice invoiceResponse `json:"invoice"`
	Table   *tableResponse  `json:"table,omitempty"`
}

// --- Handlers ---

// Add handles POST /orders/{id}/payments.
func (h *PaymentHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID, ok := parseIDParam(w, r, "id", "invalid order ID")
	if !ok {
		return
	}

	var req addPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}

	result, err := h.svc.Settle(r.Context(), service.SettleRequest{
		OrderID:       orderID,
		InvoiceID:     req.InvoiceID,
		Amount:        amount,
		PaymentMethod: req.PaymentMethod,
		UserID:        claims.UserID,
	})
	if err != nil {
		writeServiceError(w, "settle invoice", err)
		return
	}

	resp := settleResponse{
		Order:   toOrderResponse(result.Order),
		Invoice: toInvoiceResponse(result.Invoice),
	}
	if result.Table != nil {
		tr := toTableResponse(*result.Table)
		resp.Table = &tr
	}

	publish(h.events, result.Table, ws.EventInvoiceSettled, resp)
	if result.Table != nil {
		publish(h.events, result.Table, ws.EventTableStatusChanged, *resp.Table)
	}
	writeData(w, http.StatusCreated, resp)
}
