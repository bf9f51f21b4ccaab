package notifications

import (
	"log"
	"time"

	"linkparty/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long the peer has to answer a ping before the read
	// loop gives up on the connection.
	pongWait = 60 * time.Second

	// pingPeriod must stay under pongWait so pings land before the deadline.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames.
	maxMessageSize = 16384
)

// WSHub is implemented by both the notification hub and the party hub so a
// Client can detach itself from whichever one owns it.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client pairs one websocket connection with its hub registration.
type Client struct {
	Hub WSHub

	Conn *websocket.Conn

	// Send buffers outbound messages between hub broadcasts and WritePump.
	Send chan []byte

	// UserID for this client; zero for anonymous party sessions.
	UserID uint

	// SessionID identifies the browser session in party rooms.
	SessionID string

	// IncomingHandler, when set, receives every inbound frame.
	IncomingHandler func(*Client, []byte)
}

// NewClient creates a Client bound to the given hub and connection.
func NewClient(hub WSHub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
}

// ReadPump consumes inbound frames until the connection dies, then detaches
// the client from its hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ReadPump Error (User %d): %v", c.UserID, err)
			}
			return
		}

		if c.IncomingHandler != nil {
			c.IncomingHandler(c, message)
		}
	}
}

// WritePump drains the Send channel onto the wire and keeps the connection
// alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed by the hub.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking. A full buffer drops the message
// and queues a gap notice instead so the frontend knows to re-fetch; a closed
// channel only bumps the drop counter.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
		return
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
	log.Printf("Client %d (%s): Buffer full, dropped message", c.UserID, c.Hub.Name())

	dropNotice := []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)
	select {
	case c.Send <- dropNotice:
	default:
		// No room for the notice either; the reader is gone or stuck.
	}
}
