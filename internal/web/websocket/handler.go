package websocket

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Every origin is allowed, the API has no auth boundary
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewClient creates a client bound to hub
func NewClient(hub *Hub) *Client {
	return &Client{
		ID:      uuid.New().String(),
		Hub:     hub,
		Send:    make(chan []byte, 256),
		closeCh: make(chan struct{}),
	}
}

// Register adds a client to the hub. It reports false once the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// WebSocketHandler streams download events to WebSocket clients
func WebSocketHandler(hub *Hub, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.WithField("component", "websocket").Errorf("Failed to upgrade connection to WebSocket: %v", err)
			return
		}

		client := NewClient(hub)
		if !hub.Register(client) {
			conn.Close()
			return
		}

		// Start goroutines for pumping messages
		go writePump(client, conn, log)
		go readPump(client, conn, log)

		log.WithField("component", "websocket").Infof("New WebSocket connection established: %s", client.ID)
	}
}

// readPump reads until the peer goes away; incoming messages are ignored
func readPump(client *Client, conn *websocket.Conn, log *logrus.Logger) {
	defer func() {
		client.Close()
		conn.Close()
		log.WithField("component", "websocket").Infof("WebSocket connection closed: %s", client.ID)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithField("component", "websocket").Errorf("WebSocket read error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func writePump(client *Client, conn *websocket.Conn, log *logrus.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One event per frame so clients can decode each message as JSON
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithField("component", "websocket").Errorf("Error writing message: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithField("component", "websocket").Errorf("Error sending ping: %v", err)
				return
			}
		case <-client.closeCh:
			return
		}
	}
}
