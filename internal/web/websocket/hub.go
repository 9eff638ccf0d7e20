package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rizkirmdhn/anydownloader/pkg/models"
	"github.com/sirupsen/logrus"
)

// Client represents a WebSocket client connection
type Client struct {
	ID      string
	Send    chan []byte
	Hub     *Hub
	mu      sync.Mutex
	closeCh chan struct{}
	closed  bool

	closeOnce sync.Once
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Channel for broadcasting messages to all clients
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed by Stop
	done chan struct{}

	log *logrus.Logger

	// Mutex for thread safety
	mu sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run starts the hub's message handling loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.log.WithField("component", "websocket").Infof("New client connected. Total clients: %d", len(h.clients))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.log.WithField("component", "websocket").Infof("Client disconnected. Total clients: %d", len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
					// Message sent successfully
				default:
					// Slow client, drop it
					h.drop(client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop removes a client and closes its send channel once. h.mu must be held.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	client.mu.Lock()
	if !client.closed {
		close(client.Send)
		client.closed = true
	}
	client.mu.Unlock()
}

// Stop ends Run and disconnects every client
func (h *Hub) Stop() {
	close(h.done)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues a message for all connected clients.
// It never blocks, a full queue drops the message.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.log.WithField("component", "websocket").Warn("Broadcast queue full, dropping message")
	}
}

// Publish broadcasts a download event as JSON
func (h *Hub) Publish(event models.DownloadEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).Error("Failed to marshal WebSocket event")
		return
	}
	h.Broadcast(message)
}

// Close unregisters the client and stops its write pump
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)

		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
	})
}
