package relay

import (
	"log/slog"

	"github.com/sketchmesh/sketchmesh/internal/signaling"
)

// inbound pairs a frame with the client it arrived from.
type inbound struct {
	client *Client
	frame  signaling.Frame
}

// Hub is the central brain of the relay. It maps session identifiers (and
// their guessable aliases) to connected endpoints and routes signal frames
// between them. The relay holds no group state beyond who is currently
// reachable: it is rendezvous plumbing, not a membership authority.
type Hub struct {
	// clients maps primary session identifiers to connections.
	clients map[string]*Client

	// aliases maps announced rendezvous aliases to primary identifiers.
	// First registration wins; a losing endpoint is still reachable through
	// its primary identifier.
	aliases map[string]string

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		aliases:    make(map[string]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
	}
}

// Run starts the hub's main processing loop. This is the single goroutine
// that safely manages all routing state.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			// Nothing to bind yet: the client claims its identifiers with a
			// register frame.
			slog.Debug("relay client connected", "addr", client.RemoteAddr())

		case client := <-h.unregister:
			h.drop(client)

		case in := <-h.inbound:
			h.handleFrame(in.client, in.frame)
		}
	}
}

func (h *Hub) handleFrame(c *Client, f signaling.Frame) {
	switch f.Type {
	case signaling.FrameRegister:
		h.handleRegister(c, f)

	case signaling.FrameSignal:
		h.handleSignal(c, f)

	default:
		slog.Debug("relay ignoring frame", "type", f.Type)
	}
}

func (h *Hub) handleRegister(c *Client, f signaling.Frame) {
	if f.SRC == "" {
		c.send(signaling.Frame{Type: signaling.FrameError, Error: "register frame missing src"})
		return
	}

	if owner, ok := h.clients[f.SRC]; ok && owner != c {
		c.send(signaling.Frame{Type: signaling.FrameError, Error: "identifier already registered"})
		return
	}

	h.clients[f.SRC] = c
	c.primary = f.SRC

	for _, alias := range f.Aliases {
		if _, taken := h.clients[alias]; taken {
			continue
		}
		if _, taken := h.aliases[alias]; taken {
			slog.Debug("relay alias already claimed", "alias", alias)
			continue
		}
		h.aliases[alias] = f.SRC
		c.aliases = append(c.aliases, alias)
	}

	c.send(signaling.Frame{Type: signaling.FrameRegistered, DST: f.SRC})
	slog.Info("relay registered endpoint", "id", f.SRC, "aliases", len(c.aliases))
}

func (h *Hub) handleSignal(c *Client, f signaling.Frame) {
	if c.primary == "" {
		c.send(signaling.Frame{Type: signaling.FrameError, Error: "signal before register"})
		return
	}

	target, ok := h.resolve(f.DST)
	if !ok {
		// Guessed addresses routinely miss; the dialer treats this as a
		// non-event, so reply without logging noise.
		c.send(signaling.Frame{Type: signaling.FrameAbsent, DST: f.DST, Ref: f.Ref})
		return
	}

	// The sender's identity is what it registered, not what it claims.
	f.SRC = c.primary
	target.send(f)
}

// resolve finds the connection behind an identifier or one of its aliases.
func (h *Hub) resolve(dst string) (*Client, bool) {
	if c, ok := h.clients[dst]; ok {
		return c, true
	}
	if primary, ok := h.aliases[dst]; ok {
		if c, ok := h.clients[primary]; ok {
			return c, true
		}
	}
	return nil, false
}

// drop removes every identifier a departing client held and tells the
// remaining endpoints, so peers can tear down links without waiting for an
// ICE timeout.
func (h *Hub) drop(c *Client) {
	if c.primary != "" {
		if h.clients[c.primary] == c {
			delete(h.clients, c.primary)
		}
		slog.Info("relay endpoint gone", "id", c.primary)
	}
	for _, alias := range c.aliases {
		if h.aliases[alias] == c.primary {
			delete(h.aliases, alias)
		}
	}
	c.closeSend()

	if c.primary == "" {
		return
	}
	gone := signaling.Frame{Type: signaling.FramePeerGone, SRC: c.primary}
	for _, other := range h.clients {
		other.send(gone)
	}
}
