package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

// Event is a push notification delivered to one connected user: a waitlist
// seat offer, a booking confirmation, or a cancellation.
type Event struct {
	Type      string     `json:"type"`
	SessionID uuid.UUID  `json:"session_id"`
	Message   string     `json:"message"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

const (
	EventWaitlistOffer    = "waitlist_offer"
	EventBookingConfirmed = "booking_confirmed"
	EventSessionCancelled = "session_cancelled"
)

type userEvent struct {
	UserID uuid.UUID
	Event  Event
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var events = make(chan *userEvent, 64)

func init() {
	go RunHub()
}

// Push queues an event for a connected user. Users without an open socket
// just miss the push; email remains the durable channel.
func Push(userID uuid.UUID, event Event) {
	select {
	case events <- &userEvent{UserID: userID, Event: event}:
	default:
		log.Printf("WebSocket event queue full, dropping %s event for %s", event.Type, userID)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case ev := <-events:
			clientsMu.RLock()
			conn, ok := clients[ev.UserID]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(ev.Event); err != nil {
				log.Printf("Error pushing %s event to client %s: %v", ev.Event.Type, ev.UserID, err)
				conn.Close()
				clientsMu.Lock()
				delete(clients, ev.UserID)
				clientsMu.Unlock()
			}
		}
	}
}
