package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Event types pushed to section rooms.
const (
	EventOrderCreated       = "order.created"
	EventOrderUpdated       = "order.updated"
	EventOrderCanceled      = "order.canceled"
	EventOrderDeleted       = "order.deleted"
	EventInvoiceSettled     = "invoice.settled"
	EventTableStatusChanged = "table.status_changed"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// sectionEvent routes an event to one section room
type sectionEvent struct {
	SectionID uuid.UUID
	Event     Event
}

// Hub maintains the set of active clients per floor section and fans
// events out to them.
type Hub struct {
	// Registered clients by section ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *sectionEvent

	// closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *sectionEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is canceled, closing
// every client's send channel so their write pumps hang up.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for sid, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, sid)
			}
			h.mu.Unlock()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.sectionID] == nil {
				h.rooms[client.sectionID] = make(map[*Client]bool)
			}
			h.rooms[client.sectionID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				log.Printf("ERROR: marshal ws event %s: %v", event.Event.Type, err)
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.SectionID] {
				select {
				case client.send <- message:
				default:
					// slow consumer
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client and closes its send channel. Caller holds h.mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.sectionID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.sectionID)
	}
}

// BroadcastToSection queues an event for every client watching the section.
// It never blocks; when the queue is full the event is dropped and logged.
func (h *Hub) BroadcastToSection(sectionID uuid.UUID, event Event) {
	select {
	case h.broadcast <- &sectionEvent{SectionID: sectionID, Event: event}:
	default:
		log.Printf("WARN: ws broadcast queue full, dropping %s for section %s", event.Type, sectionID)
	}
}

// Publish marshals payload and broadcasts it as an event of the given type.
func (h *Hub) Publish(sectionID uuid.UUID, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal ws payload %s: %v", eventType, err)
		return
	}
	h.BroadcastToSection(sectionID, Event{Type: eventType, Payload: raw})
}
