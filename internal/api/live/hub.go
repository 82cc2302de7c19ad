// Package live streams sweep progress to WebSocket subscribers.
package live

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// ProgressEvent is one message broadcast to subscribers of a running sweep.
type ProgressEvent struct {
	SweepID string `json:"sweep_id"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Status  string `json:"status"` // "running" | "done" | "cancelled" | "error"
	Error   string `json:"error,omitempty"`
}

// Client is a single connected WebSocket subscriber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans out progress events to every connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Register adds a client to the hub.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := &Client{hub: h, conn: conn, send: make(chan []byte, 32)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	go c.writePump()
	return c
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast sends a progress event to every connected client.
func (h *Hub) Broadcast(evt ProgressEvent) {
	msg, err := json.Marshal(evt)
	if err != nil {
		log.Printf("live: failed to marshal progress event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("live: client buffer full, dropping progress event")
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// ReadPump drains (and discards) inbound messages so the connection's
// control frames (ping/close) are still processed, until the client
// disconnects, then unregisters it.
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
