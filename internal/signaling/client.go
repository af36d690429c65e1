package signaling

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sketchmesh/sketchmesh/internal/dns"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// Fixed relay reconnect delay. Deliberately not exponential: the relay is
	// best-effort rendezvous, and a session that cannot reach it is useless
	// anyway.
	reconnectDelay = 2 * time.Second
)

// Status describes the relay connection as seen by the client.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

// Client manages the WebSocket connection to the relay, transparently
// redialing with a fixed delay and re-sending the registration frame when the
// connection drops.
type Client struct {
	serverURL    string
	registration *Frame
	incoming     chan Frame
	outgoing     chan Frame
	status       chan Status
	done         chan struct{}
	closed       bool
}

// NewClient creates a new relay client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		incoming:  make(chan Frame, 32),
		outgoing:  make(chan Frame, 32),
		status:    make(chan Status, 8),
		done:      make(chan struct{}),
	}
}

// SetRegistration stores the register frame sent after every successful dial.
// Must be called before Connect.
func (c *Client) SetRegistration(f Frame) {
	c.registration = &f
}

// Connect establishes the initial WebSocket connection to the relay and
// starts the reconnect loop. A failure here means the relay is unreachable.
func (c *Client) Connect() error {
	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	go c.run(conn)
	return nil
}

func (c *Client) dial() (*websocket.Conn, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	// Custom dialer that uses our robust DNS lookup
	dialer := websocket.DefaultDialer
	dialer.NetDial = func(network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		resolvedIP, err := dns.Lookup(host)
		if err != nil {
			return nil, fmt.Errorf("dns lookup failed: %w", err)
		}

		return net.Dial(network, net.JoinHostPort(resolvedIP, port))
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	return conn, err
}

// run owns the connection for the client's lifetime, cycling through
// session/redial until Close.
func (c *Client) run(conn *websocket.Conn) {
	for {
		if c.registration != nil {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(*c.registration); err != nil {
				slog.Warn("failed to send registration", "error", err)
			}
		}
		c.notify(StatusConnected)

		c.session(conn)

		select {
		case <-c.done:
			return
		default:
		}
		c.notify(StatusDisconnected)

		for {
			select {
			case <-c.done:
				return
			case <-time.After(reconnectDelay):
			}

			c.notify(StatusConnecting)
			next, err := c.dial()
			if err != nil {
				slog.Debug("relay redial failed", "error", err)
				c.notify(StatusDisconnected)
				continue
			}
			conn = next
			break
		}
	}
}

// session pumps frames over one connection until it fails or the client is
// closed.
func (c *Client) session(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			var f Frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			select {
			case c.incoming <- f:
			case <-c.done:
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f := <-c.outgoing:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				conn.Close()
				<-readDone
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				<-readDone
				return
			}

		case <-readDone:
			conn.Close()
			return

		case <-c.done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			conn.Close()
			<-readDone
			return
		}
	}
}

func (c *Client) notify(s Status) {
	select {
	case c.status <- s:
	default:
	}
}

// SendFrame queues a frame for the relay.
func (c *Client) SendFrame(f Frame) {
	select {
	case c.outgoing <- f:
	case <-c.done:
	}
}

// Incoming returns the channel for receiving frames.
func (c *Client) Incoming() <-chan Frame {
	return c.incoming
}

// Statuses returns the channel carrying connection status transitions.
func (c *Client) Statuses() <-chan Status {
	return c.status
}

// Close shuts the connection down and stops the reconnect loop.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true

	close(c.done)
}
