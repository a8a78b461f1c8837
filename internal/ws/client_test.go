package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tablepos/api/internal/auth"
)

const testSecret = "ws-test-secret"

func startServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ws/sections/{sid}", hub.Handler(testSecret))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, sectionID, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sections/" + sectionID + "?token=" + token
}

// waitForClients polls until the section room holds n clients. The dial
// returns after the upgrade, which can be before the hub stores the client.
func waitForClients(t *testing.T, hub *Hub, sectionID uuid.UUID, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		hub.mu.RLock()
		got := len(hub.rooms[sectionID])
		hub.mu.RUnlock()
		if got == n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("section room: got %d clients, want %d", got, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandler_RejectsBadRequests(t *testing.T) {
	hub := startHub(t)
	srv := startServer(t, hub)
	token, err := auth.GenerateToken(testSecret, uuid.New(), "WAITER")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"missing token", wsURL(srv, uuid.NewString(), ""), http.StatusUnauthorized},
		{"malformed token", wsURL(srv, uuid.NewString(), "not-a-jwt"), http.StatusUnauthorized},
		{"bad section", wsURL(srv, "floor-1", token), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)
			if err == nil {
				conn.Close()
				t.Fatal("expected dial to fail")
			}
			if resp == nil || resp.StatusCode != tt.want {
				t.Fatalf("status: got %v, want %d", resp, tt.want)
			}
		})
	}
}

func TestHandler_DeliversOneFramePerEvent(t *testing.T) {
	hub := startHub(t)
	srv := startServer(t, hub)
	token, _ := auth.GenerateToken(testSecret, uuid.New(), "WAITER")
	sectionID := uuid.New()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, sectionID.String(), token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, sectionID, 1)

	hub.Publish(sectionID, EventOrderCreated, map[string]int{"n": 1})
	hub.Publish(sectionID, EventOrderUpdated, map[string]int{"n": 2})

	conn.SetReadDeadline(time.Now().Add(time.Second)) //nolint:errcheck
	for _, want := range []string{EventOrderCreated, EventOrderUpdated} {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("frame is not a single event: %v (%s)", err, msg)
		}
		if ev.Type != want {
			t.Errorf("event type: got %q, want %q", ev.Type, want)
		}
	}
}

func TestHandler_ClosesOnHubShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx) //nolint:errcheck
	srv := startServer(t, hub)
	token, _ := auth.GenerateToken(testSecret, uuid.New(), "WAITER")
	sectionID := uuid.New()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, sectionID.String(), token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, sectionID, 1)

	cancel()

	conn.SetReadDeadline(time.Now().Add(time.Second)) //nolint:errcheck
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}
}
