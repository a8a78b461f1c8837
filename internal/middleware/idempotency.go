package middleware

import (
	"context"
	"log"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const IdempotencyHeader = "Idempotency-Key"

// KeyStore claims and releases idempotency keys.
// Satisfied by *idempotency.Store.
type KeyStore interface {
	// Seen reports whether key was already claimed, claiming it otherwise.
	Seen(ctx context.Context, key string) (bool, error)
	// Release forgets key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// Idempotency rejects a replayed Idempotency-Key with 409 so a retried POST
// cannot create a second order. A request that fails (status >= 400) gives
// its key back. Requests without the header pass through, and a nil store
// disables the check.
func Idempotency(store KeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			scope := r.URL.Path
			if claims := ClaimsFromContext(r.Context()); claims != nil {
				scope = claims.UserID.String() + ":" + scope
			}
			key = "idem:" + scope + ":" + key

			seen, err := store.Seen(r.Context(), key)
			if err != nil {
				// fail open
				log.Printf("WARN: idempotency check: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				writeError(w, http.StatusConflict, "duplicate request")
				return
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusBadRequest {
				// The request context may already be canceled.
				if err := store.Release(context.WithoutCancel(r.Context()), key); err != nil {
					log.Printf("WARN: idempotency release: %v", err)
				}
			}
		})
	}
}
