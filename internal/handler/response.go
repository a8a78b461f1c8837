package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tablepos/api/internal/service"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: status, Message: msg}})
}

func writeErrorDetails(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: status, Message: msg, Details: details}})
}

func writeInternal(w http.ResponseWriter, op string, err error) {
	log.Printf("ERROR: %s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// writeServiceError maps the service error kinds to HTTP statuses. Anything
// without a kind is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrBusinessRule):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeInternal(w, op, err)
	}
}

// --- Numeric helpers ---

func numericToString(n pgtype.Numeric) string {
	d, ok := numericToDecimal(n)
	if !ok {
		return "0.00"
	}
	return d.StringFixed(2)
}

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, bool) {
	if !n.Valid {
		return decimal.Zero, false
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func optionalNumeric(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := numericToString(n)
	return &s
}

func optionalText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func optionalUUID(u pgtype.UUID) *string {
	if !u.Valid {
		return nil
	}
	s := uuidString(u.Bytes)
	return &s
}
