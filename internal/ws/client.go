package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tablepos/api/internal/auth"
)

const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	// must stay below idleTimeout
	pingInterval = 50 * time.Second
	// floor clients only send control frames
	readLimit = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the token in the query string is the access check
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one floor screen subscribed to a section.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sectionID uuid.UUID
	send      chan []byte
}

// listen blocks until the peer goes away, then unsubscribes the client.
func (c *Client) listen() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(idleTimeout)) }
	extend("") //nolint:errcheck
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WARN: ws section %s: %v", c.sectionID, err)
			}
			return
		}
	}
}

// deliver writes each queued event as its own text frame and pings the
// peer while idle. It returns once the hub closes send or a write fails.
func (c *Client) deliver() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var (
			kind int
			data []byte
		)
		select {
		case msg, ok := <-c.send:
			if !ok {
				bye := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
				c.conn.WriteControl(websocket.CloseMessage, bye, time.Now().Add(writeTimeout)) //nolint:errcheck
				return
			}
			kind, data = websocket.TextMessage, msg
		case <-ticker.C:
			kind = websocket.PingMessage
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
		if err := c.conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}

// Handler upgrades GET /ws/sections/{sid}?token=JWT and subscribes the
// connection to that section's events.
func (h *Hub) Handler(jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// browsers cannot set headers on the upgrade request
		if _, err := auth.ValidateToken(jwtSecret, r.URL.Query().Get("token")); err != nil {
			http.Error(w, "invalid or missing token", http.StatusUnauthorized)
			return
		}
		sectionID, err := uuid.Parse(chi.URLParam(r, "sid"))
		if err != nil {
			http.Error(w, "invalid section id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ERROR: ws upgrade: %v", err)
			return
		}

		c := &Client{hub: h, conn: conn, sectionID: sectionID, send: make(chan []byte, 64)}
		select {
		case h.register <- c:
		case <-h.done:
			conn.Close()
			return
		}
		go c.deliver()
		go c.listen()
	}
}
