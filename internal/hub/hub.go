// Package hub fans chat events out to connected dashboard tabs over
// WebSocket.
package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event types pushed to dashboard clients.
const (
	EventSessionCreated  = "session_created"
	EventSessionRenamed  = "session_renamed"
	EventSessionDeleted  = "session_deleted"
	EventSessionSelected = "session_selected"
	EventMessageAppended = "message_appended"
)

// Event is one chat state change.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Ts        int64       `json:"ts"`
}

// Connection represents a single WebSocket connection. A connection bound
// to a session receives only that session's events; an unbound connection
// receives everything.
type Connection struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	mu        sync.Mutex
}

// Hub manages all WebSocket connections.
type Hub struct {
	connections map[string]*Connection

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Event

	mu sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *Event, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				close(conn.Send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("WARN: failed to marshal hub event: %v", err)
				continue
			}
			h.mu.RLock()
			for _, conn := range h.connections {
				if conn.SessionID != "" && conn.SessionID != event.SessionID {
					continue
				}
				select {
				case conn.Send <- data:
				default:
					log.Printf("WARN: connection %s buffer full, dropping event", conn.ID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NewConnection creates a connection for the given socket. An empty
// sessionID subscribes the connection to all sessions.
func (h *Hub) NewConnection(ws *websocket.Conn, sessionID string) *Connection {
	return &Connection{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Conn:      ws,
		Send:      make(chan []byte, 256),
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister unregisters a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Publish broadcasts a chat event. It never blocks the caller; when the
// hub's queue is full the event is dropped.
func (h *Hub) Publish(eventType, sessionID string, payload interface{}) {
	event := &Event{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Ts:        time.Now().UnixMilli(),
	}
	select {
	case h.broadcast <- event:
	default:
		log.Printf("WARN: hub queue full, dropping %s event", eventType)
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
