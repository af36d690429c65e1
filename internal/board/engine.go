// Package board runs one session of the shared drawing surface: it discovers
// peers in the room, keeps the link registry and participant view consistent,
// and replicates strokes.
//
// Everything stateful lives on one goroutine: transport events, discovery
// batches, local input, and status queries are all serialized through the
// engine's select loop, so the registry and presence store never need locks.
// Handlers must only assume the world is unchanged until they return.
package board

import (
	"context"
	"log/slog"
	"time"

	"github.com/sketchmesh/sketchmesh/internal/canvas"
	"github.com/sketchmesh/sketchmesh/internal/discovery"
	"github.com/sketchmesh/sketchmesh/internal/protocol"
	"github.com/sketchmesh/sketchmesh/internal/room"
	"github.com/sketchmesh/sketchmesh/internal/transport"
)

// Connection states surfaced to the user. The only error signal a participant
// ever sees is this aggregate plus the participant count.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
)

// Status is the engine's user-visible aggregate.
type Status struct {
	State        string
	Participants int
	Links        int
}

// Params configures an engine.
type Params struct {
	Identity room.Identity
	RoomID   string

	Endpoint Endpoint
	Renderer Renderer

	Strategy          discovery.Strategy
	DiscoveryInterval time.Duration
	DiscoveryDeadline time.Duration

	// CursorInterval throttles outbound pointer updates.
	CursorInterval time.Duration

	// History, when non-nil, records strokes and serves canvas-state
	// requests. When nil the session answers them with an empty payload and
	// late joiners only see live strokes.
	History *canvas.History
}

type inputKind int

const (
	inputStroke inputKind = iota
	inputCursor
	inputClear
)

type inputEvent struct {
	kind   inputKind
	stroke protocol.Stroke
	x, y   float64
}

// Engine drives one session.
type Engine struct {
	identity  room.Identity
	endpoint  Endpoint
	renderer  Renderer
	scheduler *discovery.Scheduler
	history   *canvas.History

	cursorInterval time.Duration
	lastCursorAt   time.Time

	conns    *connRegistry
	presence *presenceStore
	state    string

	input        chan inputEvent
	statusReq    chan chan Status
	participants chan chan []Participant
	updates      chan Status
	done         chan struct{}
}

// New assembles an engine. The local participant is present from the start.
func New(p Params) *Engine {
	if p.Renderer == nil {
		p.Renderer = NopRenderer{}
	}
	if p.CursorInterval <= 0 {
		p.CursorInterval = 50 * time.Millisecond
	}
	if p.DiscoveryInterval <= 0 {
		p.DiscoveryInterval = 5 * time.Second
	}
	if p.DiscoveryDeadline <= 0 {
		p.DiscoveryDeadline = 2 * time.Minute
	}

	e := &Engine{
		identity:       p.Identity,
		endpoint:       p.Endpoint,
		renderer:       p.Renderer,
		scheduler:      discovery.NewScheduler(p.RoomID, p.Strategy, p.DiscoveryInterval, p.DiscoveryDeadline),
		history:        p.History,
		cursorInterval: p.CursorInterval,
		conns:          newConnRegistry(),
		presence:       newPresenceStore(),
		state:          StateDisconnected,
		input:          make(chan inputEvent, 256),
		statusReq:      make(chan chan Status),
		participants:   make(chan chan []Participant),
		updates:        make(chan Status, 16),
		done:           make(chan struct{}),
	}
	e.presence.upsert(p.Identity.ID, p.Identity.Color)
	return e
}

// Run owns all session state until ctx is cancelled. It returns early only
// when the relay is unreachable at startup.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.endpoint.Shutdown()

	if err := e.endpoint.Open(); err != nil {
		e.setState(StateDisconnected)
		return err
	}
	e.setState(StateConnecting)

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go e.scheduler.Run(dctx)
	batches := e.scheduler.Batches()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-e.endpoint.Events():
			e.handleTransport(ev)

		case batch, ok := <-batches:
			if !ok {
				batches = nil
				continue
			}
			e.dialBatch(batch)

		case in := <-e.input:
			e.handleInput(in)

		case q := <-e.statusReq:
			q <- e.snapshot()

		case q := <-e.participants:
			q <- e.presence.list()
		}
	}
}

// Stroke feeds one local drawing gesture segment into the session.
func (e *Engine) Stroke(x, y, prevX, prevY float64, start bool) {
	kind := protocol.StrokeDraw
	if start {
		kind = protocol.StrokeStart
	}
	e.post(inputEvent{kind: inputStroke, stroke: protocol.Stroke{
		X:      x,
		Y:      y,
		PrevX:  prevX,
		PrevY:  prevY,
		Color:  e.identity.Color,
		Type:   kind,
		UserID: e.identity.ID,
	}})
}

// Cursor feeds the local pointer position.
func (e *Engine) Cursor(x, y float64) {
	e.post(inputEvent{kind: inputCursor, x: x, y: y})
}

// Clear wipes the surface everywhere.
func (e *Engine) Clear() {
	e.post(inputEvent{kind: inputClear})
}

func (e *Engine) post(in inputEvent) {
	select {
	case e.input <- in:
	case <-e.done:
	}
}

// Status reports the current aggregate; zero value once the engine stopped.
func (e *Engine) Status() Status {
	q := make(chan Status, 1)
	select {
	case e.statusReq <- q:
		return <-q
	case <-e.done:
		return Status{State: StateDisconnected}
	}
}

// Participants lists the current replicated membership view.
func (e *Engine) Participants() []Participant {
	q := make(chan []Participant, 1)
	select {
	case e.participants <- q:
		return <-q
	case <-e.done:
		return nil
	}
}

// Updates delivers status changes, best-effort: a slow consumer misses
// intermediate states, never blocks the session.
func (e *Engine) Updates() <-chan Status {
	return e.updates
}

func (e *Engine) handleTransport(ev transport.Event) {
	switch ev.Kind {
	case transport.EndpointUp:
		e.setState(StateConnected)

	case transport.EndpointDown:
		e.setState(StateConnecting)

	case transport.EndpointError:
		slog.Error("relay refused session", "error", ev.Err)
		e.setState(StateDisconnected)

	case transport.CandidateAbsent:
		// The usual fate of a guess. Not a fault.
		e.conns.dropDial(ev.Ref)
		slog.Debug("candidate absent", "candidate", ev.Ref)

	case transport.LinkOpen:
		e.handleLinkOpen(ev)

	case transport.LinkData:
		e.handleLinkData(ev)

	case transport.LinkClosed:
		e.handleLinkClosed(ev, nil)

	case transport.LinkError:
		e.handleLinkClosed(ev, ev.Err)
	}
}

// dialBatch attempts every candidate not already covered by a link. Discovery
// is driven purely by the joining side; peers never publish membership.
func (e *Engine) dialBatch(batch []string) {
	if e.state != StateConnected {
		return
	}

	for _, candidate := range batch {
		if candidate == e.identity.ID || candidate == e.identity.Beacon {
			continue
		}
		if !e.conns.shouldDial(candidate) {
			continue
		}
		link := e.endpoint.Connect(candidate)
		e.conns.beginDial(candidate, link)
		slog.Debug("dialing candidate", "candidate", candidate)
	}
}

// handleLinkOpen coalesces duplicate links per remote, then performs the
// on-open handshake: announce ourselves and ask for the canvas.
func (e *Engine) handleLinkOpen(ev transport.Event) {
	c := e.conns.get(ev.Link)
	if c == nil {
		// Unsolicited inbound link.
		c = e.conns.track(ev.Link)
	}

	if ev.Remote == "" || ev.Remote == e.identity.ID {
		e.discard(c)
		return
	}
	e.conns.noteResolution(c.dialed, ev.Remote)

	if existing := e.conns.byRemoteID(ev.Remote); existing != nil && existing != c {
		// Cross-dial: both sides dialed at once and two links exist for one
		// pair. Keep the one dialed by the lower session identifier; both
		// sides apply the same rule, so they keep the same link.
		if e.dialerOf(c, ev.Remote) < e.dialerOf(existing, ev.Remote) {
			e.conns.drop(existing)
			e.endpoint.Close(existing.link)
		} else {
			e.discard(c)
			return
		}
	}

	e.conns.open(c, ev.Remote)

	e.sendTo(c, protocol.NewUserJoin(protocol.User{ID: e.identity.ID, Color: e.identity.Color}))
	c.introduced = true
	e.sendTo(c, protocol.NewCanvasStateRequest())

	slog.Info("link established", "remote", ev.Remote)
	e.publish()
}

// dialerOf identifies which session initiated a link.
func (e *Engine) dialerOf(c *conn, remote string) string {
	if c.outbound {
		return e.identity.ID
	}
	return remote
}

// discard drops a link we decided not to keep, without touching presence.
func (e *Engine) discard(c *conn) {
	e.conns.drop(c)
	e.endpoint.Close(c.link)
}

func (e *Engine) handleLinkData(ev transport.Event) {
	c := e.conns.get(ev.Link)
	if c == nil || c.state != connOpen {
		return
	}

	f, err := protocol.Decode(ev.Data)
	if err != nil {
		slog.Debug("undecodable frame", "remote", c.remote, "error", err)
		return
	}
	e.route(c, f)
}

// handleLinkClosed evicts the link and, if it owned its remote's registry
// slot, the dependent presence state. No retry: rediscovery may or may not
// guess the same peer again.
func (e *Engine) handleLinkClosed(ev transport.Event, cause error) {
	c := e.conns.get(ev.Link)
	if c == nil {
		return
	}

	if cause != nil {
		slog.Warn("link failed", "remote", c.remote, "error", cause)
	}

	if e.conns.drop(c) {
		e.presence.remove(c.remote)
		e.renderer.RemoveCursor(c.remote)
		slog.Info("participant gone", "remote", c.remote)
	}
	e.publish()
}

func (e *Engine) handleInput(in inputEvent) {
	switch in.kind {
	case inputStroke:
		e.renderer.DrawStroke(in.stroke)
		if e.history != nil {
			e.history.Append(in.stroke)
		}
		e.broadcast(protocol.NewDrawing(in.stroke))

	case inputCursor:
		now := time.Now()
		if now.Sub(e.lastCursorAt) < e.cursorInterval {
			return
		}
		e.lastCursorAt = now
		e.presence.setCursor(e.identity.ID, in.x, in.y)
		e.broadcast(protocol.NewCursor(in.x, in.y))

	case inputClear:
		e.renderer.Clear()
		if e.history != nil {
			e.history.Reset()
		}
		e.broadcast(protocol.NewClear())
	}
}

func (e *Engine) snapshot() Status {
	return Status{
		State:        e.state,
		Participants: e.presence.count(),
		Links:        len(e.conns.openConns()),
	}
}

func (e *Engine) setState(state string) {
	if e.state == state {
		return
	}
	e.state = state
	e.publish()
}

// publish pushes the current aggregate to the updates channel, dropping it if
// nobody is keeping up.
func (e *Engine) publish() {
	select {
	case e.updates <- e.snapshot():
	default:
	}
}
