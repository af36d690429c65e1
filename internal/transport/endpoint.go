package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"
	"github.com/sketchmesh/sketchmesh/internal/config"
	"github.com/sketchmesh/sketchmesh/internal/room"
	"github.com/sketchmesh/sketchmesh/internal/signaling"
)

const dataChannelLabel = "board"

// Endpoint is the session's network face: it registers the session identifier
// (and its rendezvous beacon) with the relay, dials candidate identifiers, and
// accepts unsolicited inbound links. All I/O lives here; consumers only see
// Events.
type Endpoint struct {
	identity room.Identity
	cfg      *config.Config
	client   *signaling.Client
	events   chan Event

	mu       sync.Mutex
	links    map[string]*link // by link handle
	dialed   map[string]*link // outbound, by dialed identifier
	accepted map[string]*link // inbound, by src|ref path
	seq      uint64
	closed   bool

	done chan struct{}
}

// New creates an endpoint for the given identity.
func New(identity room.Identity, cfg *config.Config) *Endpoint {
	return &Endpoint{
		identity: identity,
		cfg:      cfg,
		client:   signaling.NewClient(cfg.WebSocketURL),
		events:   make(chan Event, 512),
		links:    make(map[string]*link),
		dialed:   make(map[string]*link),
		accepted: make(map[string]*link),
		done:     make(chan struct{}),
	}
}

// Events returns the endpoint's event stream.
func (e *Endpoint) Events() <-chan Event {
	return e.events
}

// Open registers with the relay. Fails only when the relay is unreachable;
// registration acknowledgement arrives asynchronously as EndpointUp.
func (e *Endpoint) Open() error {
	e.client.SetRegistration(signaling.Frame{
		Type:    signaling.FrameRegister,
		SRC:     e.identity.ID,
		Aliases: []string{e.identity.Beacon},
	})

	if err := e.client.Connect(); err != nil {
		return WrapError("open endpoint", ErrSignalingUnreachable, err.Error())
	}

	go e.loop()
	return nil
}

// Connect starts an outbound dial to a candidate identifier and returns the
// link handle. The dial never fails synchronously: a candidate that does not
// exist surfaces later as a CandidateAbsent event.
func (e *Endpoint) Connect(candidate string) string {
	e.mu.Lock()
	e.seq++
	l := &link{id: fmt.Sprintf("link-%d", e.seq), ref: candidate}
	e.links[l.id] = l
	e.dialed[candidate] = l
	e.mu.Unlock()

	go e.dial(l)
	return l.id
}

// Send transmits one wire frame over an open link.
func (e *Endpoint) Send(linkID string, data []byte) error {
	e.mu.Lock()
	l, ok := e.links[linkID]
	if !ok {
		e.mu.Unlock()
		return NewError("send", ErrUnknownLink)
	}
	if !l.opened || l.closed || l.dc == nil {
		e.mu.Unlock()
		return NewRemoteError("send", l.remote, ErrLinkNotOpen)
	}
	dc := l.dc
	remote := l.remote
	e.mu.Unlock()

	if err := dc.Send(data); err != nil {
		return NewRemoteError("send", remote, err)
	}
	return nil
}

// Close tears down a single link. The corresponding LinkClosed event still
// fires; consumers that initiated the close ignore it.
func (e *Endpoint) Close(linkID string) {
	e.mu.Lock()
	l, ok := e.links[linkID]
	e.mu.Unlock()
	if ok {
		e.closeLink(l, nil)
	}
}

// Shutdown closes every link and the relay connection.
func (e *Endpoint) Shutdown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	links := make([]*link, 0, len(e.links))
	for _, l := range e.links {
		links = append(links, l)
	}
	e.mu.Unlock()

	close(e.done)
	for _, l := range links {
		if l.pc != nil {
			l.pc.Close()
		}
	}
	e.client.Close()
}

// loop consumes relay frames and status transitions until shutdown.
func (e *Endpoint) loop() {
	for {
		select {
		case <-e.done:
			return

		case f := <-e.client.Incoming():
			e.handleFrame(f)

		case s := <-e.client.Statuses():
			switch s {
			case signaling.StatusDisconnected:
				e.emit(Event{Kind: EndpointDown})
			}
		}
	}
}

func (e *Endpoint) handleFrame(f signaling.Frame) {
	switch f.Type {
	case signaling.FrameRegistered:
		e.emit(Event{Kind: EndpointUp})

	case signaling.FrameError:
		e.emit(Event{Kind: EndpointError, Err: errors.New(f.Error)})

	case signaling.FrameAbsent:
		e.handleAbsent(f)

	case signaling.FramePeerGone:
		e.handlePeerGone(f)

	case signaling.FrameSignal:
		e.handleSignal(f)

	default:
		slog.Debug("ignoring relay frame", "type", f.Type)
	}
}

func (e *Endpoint) handleAbsent(f signaling.Frame) {
	e.mu.Lock()
	l, ok := e.dialed[f.Ref]
	if ok {
		l.closed = true
		delete(e.links, l.id)
		delete(e.dialed, f.Ref)
	}
	e.mu.Unlock()

	if ok {
		if l.pc != nil {
			l.pc.Close()
		}
		e.emit(Event{Kind: CandidateAbsent, Link: l.id, Ref: f.Ref})
	}
}

// handlePeerGone tears down links to an endpoint the relay saw depart. Faster
// than waiting for the ICE layer to notice.
func (e *Endpoint) handlePeerGone(f signaling.Frame) {
	if f.SRC == "" {
		return
	}

	e.mu.Lock()
	var gone []*link
	for _, l := range e.links {
		if l.remote == f.SRC {
			gone = append(gone, l)
		}
	}
	e.mu.Unlock()

	for _, l := range gone {
		e.closeLink(l, nil)
	}
}

func (e *Endpoint) handleSignal(f signaling.Frame) {
	payload, err := f.DecodeSignal()
	if err != nil {
		slog.Debug("bad signal payload", "error", err)
		return
	}

	switch payload.Kind {
	case signaling.SignalOffer:
		e.handleOffer(f, payload)

	case signaling.SignalAnswer:
		e.handleAnswer(f, payload)

	case signaling.SignalICE:
		e.handleRemoteICE(f, payload)

	default:
		slog.Debug("unknown signal kind", "kind", payload.Kind)
	}
}

// handleOffer accepts an unsolicited inbound link.
func (e *Endpoint) handleOffer(f signaling.Frame, payload signaling.SignalPayload) {
	e.mu.Lock()
	e.seq++
	l := &link{id: fmt.Sprintf("link-%d", e.seq), remote: f.SRC, ref: f.Ref}
	e.links[l.id] = l
	e.accepted[f.SRC+"|"+f.Ref] = l
	e.mu.Unlock()

	// The SDP exchange can block on pion internals; never stall the frame loop.
	go e.accept(l, f, payload)
}

func (e *Endpoint) accept(l *link, f signaling.Frame, payload signaling.SignalPayload) {
	pc, err := e.newPeerConnection()
	if err != nil {
		e.failLink(l, err)
		return
	}

	e.mu.Lock()
	l.pc = pc
	e.mu.Unlock()

	pc.OnDataChannel(func(dc *pion.DataChannel) {
		e.wireDataChannel(l, dc)
	})
	e.wireConnectionState(l, pc)
	e.wireLocalICE(l, pc, f.Ref)

	if err := pc.SetRemoteDescription(pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: payload.SDP}); err != nil {
		e.failLink(l, err)
		return
	}
	e.flushPendingICE(l)

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		e.failLink(l, err)
		return
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		e.failLink(l, err)
		return
	}

	e.sendSignal(f.SRC, f.Ref, signaling.SignalPayload{
		Kind: signaling.SignalAnswer,
		SDP:  pc.LocalDescription().SDP,
	})
}

// dial drives the outbound side of the SDP exchange.
func (e *Endpoint) dial(l *link) {
	pc, err := e.newPeerConnection()
	if err != nil {
		e.failLink(l, err)
		return
	}

	e.mu.Lock()
	l.pc = pc
	e.mu.Unlock()

	dc, err := pc.CreateDataChannel(dataChannelLabel, nil)
	if err != nil {
		e.failLink(l, err)
		return
	}
	e.wireDataChannel(l, dc)
	e.wireConnectionState(l, pc)
	e.wireLocalICE(l, pc, l.ref)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		e.failLink(l, err)
		return
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		e.failLink(l, err)
		return
	}

	e.sendSignal(l.ref, l.ref, signaling.SignalPayload{
		Kind: signaling.SignalOffer,
		SDP:  pc.LocalDescription().SDP,
	})
}

// handleAnswer completes an outbound dial. The answer's src is the dialed
// candidate's resolved session identifier.
func (e *Endpoint) handleAnswer(f signaling.Frame, payload signaling.SignalPayload) {
	e.mu.Lock()
	l, ok := e.dialed[f.Ref]
	if ok {
		l.remote = f.SRC
	}
	e.mu.Unlock()
	if !ok || l.pc == nil {
		return
	}

	if err := l.pc.SetRemoteDescription(pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: payload.SDP}); err != nil {
		e.failLink(l, err)
		return
	}
	e.flushPendingICE(l)
}

func (e *Endpoint) handleRemoteICE(f signaling.Frame, payload signaling.SignalPayload) {
	if payload.Candidate == nil {
		return
	}

	var init pion.ICECandidateInit
	if err := json.Unmarshal(payload.Candidate, &init); err != nil {
		slog.Debug("bad ICE candidate", "error", err)
		return
	}

	e.mu.Lock()
	l, ok := e.dialed[f.Ref]
	if !ok {
		l, ok = e.accepted[f.SRC+"|"+f.Ref]
	}
	if !ok || l.closed {
		e.mu.Unlock()
		return
	}
	if !l.remoteSet {
		// Trickled candidates can beat the SDP exchange; park them.
		l.pendingICE = append(l.pendingICE, init)
		e.mu.Unlock()
		return
	}
	pc := l.pc
	e.mu.Unlock()

	if err := pc.AddICECandidate(init); err != nil {
		slog.Debug("add ICE candidate failed", "error", err)
	}
}

// flushPendingICE applies candidates parked before the remote description.
func (e *Endpoint) flushPendingICE(l *link) {
	e.mu.Lock()
	l.remoteSet = true
	parked := l.pendingICE
	l.pendingICE = nil
	pc := l.pc
	e.mu.Unlock()

	for _, init := range parked {
		if err := pc.AddICECandidate(init); err != nil {
			slog.Debug("add ICE candidate failed", "error", err)
		}
	}
}

func (e *Endpoint) wireLocalICE(l *link, pc *pion.PeerConnection, ref string) {
	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}

		e.mu.Lock()
		dst := l.dst()
		e.mu.Unlock()

		e.sendSignal(dst, ref, signaling.SignalPayload{
			Kind:      signaling.SignalICE,
			Candidate: raw,
		})
	})
}

func (e *Endpoint) wireDataChannel(l *link, dc *pion.DataChannel) {
	e.mu.Lock()
	l.dc = dc
	e.mu.Unlock()

	dc.OnOpen(func() {
		e.mu.Lock()
		l.opened = true
		remote := l.remote
		e.mu.Unlock()

		e.emit(Event{Kind: LinkOpen, Link: l.id, Remote: remote, Ref: l.ref})
	})

	dc.OnMessage(func(msg pion.DataChannelMessage) {
		e.emit(Event{Kind: LinkData, Link: l.id, Data: msg.Data})
	})

	dc.OnClose(func() {
		e.closeLink(l, nil)
	})

	dc.OnError(func(err error) {
		e.closeLink(l, err)
	})
}

func (e *Endpoint) wireConnectionState(l *link, pc *pion.PeerConnection) {
	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		switch state {
		case pion.PeerConnectionStateFailed, pion.PeerConnectionStateDisconnected:
			e.closeLink(l, ErrLinkFailed)
		case pion.PeerConnectionStateClosed:
			e.closeLink(l, nil)
		}
	})
}

// failLink reports a link that never became usable.
func (e *Endpoint) failLink(l *link, err error) {
	e.closeLink(l, err)
}

// closeLink tears a link down exactly once and reports it.
func (e *Endpoint) closeLink(l *link, cause error) {
	e.mu.Lock()
	if l.closed {
		e.mu.Unlock()
		return
	}
	l.closed = true
	delete(e.links, l.id)
	if l.ref != "" && e.dialed[l.ref] == l {
		delete(e.dialed, l.ref)
	}
	if l.remote != "" {
		delete(e.accepted, l.remote+"|"+l.ref)
	}
	remote := l.remote
	pc := l.pc
	e.mu.Unlock()

	if pc != nil {
		pc.Close()
	}

	if cause != nil {
		e.emit(Event{Kind: LinkError, Link: l.id, Remote: remote, Ref: l.ref, Err: cause})
		return
	}
	e.emit(Event{Kind: LinkClosed, Link: l.id, Remote: remote, Ref: l.ref})
}

func (e *Endpoint) sendSignal(dst, ref string, payload signaling.SignalPayload) {
	f, err := signaling.NewSignalFrame(e.identity.ID, dst, ref, payload)
	if err != nil {
		slog.Warn("encode signal frame", "error", err)
		return
	}
	e.client.SendFrame(f)
}

func (e *Endpoint) newPeerConnection() (*pion.PeerConnection, error) {
	iceServers := []pion.ICEServer{{URLs: e.cfg.GetSTUNServers()}}

	if turnServers := e.cfg.GetTURNServers(); turnServers != nil {
		username, password := e.cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}
	return pc, nil
}

func (e *Endpoint) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}
