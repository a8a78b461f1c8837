package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldError is one entry of the details list of a 400 response.
type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// decodeAndValidate reads a JSON body into dst and runs the struct's
// validate tags. It writes the 400 response itself and reports false on
// failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return false
		}
		details := make([]fieldError, len(verrs))
		for i, fe := range verrs {
			details[i] = fieldError{Field: fieldPath(fe.Namespace()), Rule: fe.Tag(), Param: fe.Param()}
		}
		writeErrorDetails(w, http.StatusBadRequest, "validation failed", details)
		return false
	}
	return true
}

// fieldPath drops the root struct name: "createOrderRequest.items[0].quantity" -> "items[0].quantity".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func uuidString(b [16]byte) string {
	return uuid.UUID(b).String()
}
