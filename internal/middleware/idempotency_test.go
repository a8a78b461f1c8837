package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tablepos/api/internal/middleware"
)

type memKeyStore struct {
	keys map[string]bool
	err  error
}

func (m *memKeyStore) Seen(_ context.Context, key string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.keys[key] {
		return true, nil
	}
	m.keys[key] = true
	return false, nil
}

func (m *memKeyStore) Release(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusCreated)
	})
}

func TestIdempotency_ReplayRejected(t *testing.T) {
	store := &memKeyStore{keys: map[string]bool{}}
	var calls int
	handler := middleware.Idempotency(store)(countingHandler(&calls))

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest("POST", "/orders", nil)
		req.Header.Set(middleware.IdempotencyHeader, "abc")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d: status got %d, want %d", i, rr.Code, want)
		}
	}
	if calls != 1 {
		t.Errorf("handler calls: got %d, want 1", calls)
	}
}

func TestIdempotency_FailedRequestReleasesKey(t *testing.T) {
	store := &memKeyStore{keys: map[string]bool{}}
	statuses := []int{http.StatusInternalServerError, http.StatusUnprocessableEntity, http.StatusCreated}
	var calls int
	handler := middleware.Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statuses[calls])
		calls++
	}))

	// Two failures and a success all reach the handler; the replay after
	// the success does not.
	for i, want := range []int{
		http.StatusInternalServerError,
		http.StatusUnprocessableEntity,
		http.StatusCreated,
		http.StatusConflict,
	} {
		req := httptest.NewRequest("POST", "/orders", nil)
		req.Header.Set(middleware.IdempotencyHeader, "abc")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d: status got %d, want %d", i, rr.Code, want)
		}
	}
	if calls != 3 {
		t.Errorf("handler calls: got %d, want 3", calls)
	}
	if len(store.keys) != 1 {
		t.Errorf("claimed keys: got %d, want 1", len(store.keys))
	}
}

func TestIdempotency_ImplicitOKKeepsKey(t *testing.T) {
	store := &memKeyStore{keys: map[string]bool{}}
	handler := middleware.Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))

	for i, want := range []int{http.StatusOK, http.StatusConflict} {
		req := httptest.NewRequest("POST", "/orders", nil)
		req.Header.Set(middleware.IdempotencyHeader, "abc")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d: status got %d, want %d", i, rr.Code, want)
		}
	}
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	store := &memKeyStore{keys: map[string]bool{}}
	var calls int
	handler := middleware.Idempotency(store)(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/orders", nil))
	}
	if calls != 2 {
		t.Errorf("handler calls: got %d, want 2", calls)
	}
}

func TestIdempotency_StoreErrorFailsOpen(t *testing.T) {
	store := &memKeyStore{err: errors.New("redis down")}
	var calls int
	handler := middleware.Idempotency(store)(countingHandler(&calls))

	req := httptest.NewRequest("POST", "/orders", nil)
	req.Header.Set(middleware.IdempotencyHeader, "abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated || calls != 1 {
		t.Errorf("got status %d calls %d, want 201 and 1", rr.Code, calls)
	}
}

func TestIdempotency_NilStoreDisabled(t *testing.T) {
	var calls int
	handler := middleware.Idempotency(nil)(countingHandler(&calls))

	req := httptest.NewRequest("POST", "/orders", nil)
	req.Header.Set(middleware.IdempotencyHeader, "abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if calls != 2 {
		t.Errorf("handler calls: got %d, want 2", calls)
	}
}
