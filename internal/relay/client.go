package relay

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sketchmesh/sketchmesh/internal/signaling"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. 64 KB is enough for SDP frames.
	maxMessageSize = 64 * 1024
)

// Client is a wrapper for a single websocket connection (one endpoint).
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Send is a buffered channel for all outbound frames; WritePump drains it.
	Send chan signaling.Frame

	// primary and aliases are the identifiers the endpoint registered,
	// written only by the hub goroutine.
	primary string
	aliases []string

	sendClosed bool
}

// NewClient wraps an accepted websocket connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		Send: make(chan signaling.Frame, 64),
	}
}

func (c *Client) RemoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// send queues a frame without blocking the hub; a slow consumer loses frames
// rather than stalling routing for everyone else.
func (c *Client) send(f signaling.Frame) {
	if c.sendClosed {
		return
	}
	select {
	case c.Send <- f:
	default:
		slog.Warn("relay dropping frame for slow endpoint", "id", c.primary)
	}
}

// closeSend is called by the hub once the client is fully dropped.
func (c *Client) closeSend() {
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.Send)
}

// ReadPump pumps frames from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine, ensuring at
// most one reader per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var f signaling.Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("relay read error", "error", err)
			}
			break
		}

		c.hub.inbound <- inbound{client: c, frame: f}
	}
}

// WritePump pumps frames from the hub to the websocket connection.
//
// A goroutine running WritePump is started per connection, ensuring at most
// one writer per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub dropped this client.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(frame); err != nil {
				slog.Debug("relay write error", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
