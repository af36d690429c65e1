package relay

import (
	"testing"
	"time"

	"github.com/sketchmesh/sketchmesh/internal/signaling"
)

func newTestClient(h *Hub) *Client {
	return &Client{hub: h, Send: make(chan signaling.Frame, 16)}
}

func recvFrame(t *testing.T, c *Client) signaling.Frame {
	t.Helper()
	select {
	case f := <-c.Send:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return signaling.Frame{}
	}
}

func registerClient(t *testing.T, h *Hub, c *Client, id string, aliases ...string) {
	t.Helper()
	h.inbound <- inbound{client: c, frame: signaling.Frame{
		Type:    signaling.FrameRegister,
		SRC:     id,
		Aliases: aliases,
	}}
	f := recvFrame(t, c)
	if f.Type != signaling.FrameRegistered {
		t.Fatalf("register reply = %+v", f)
	}
}

func TestRegisterAndRoute(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := newTestClient(h)
	b := newTestClient(h)
	registerClient(t, h, a, "sm-board-1-aaa", "sm-board-100-0")
	registerClient(t, h, b, "sm-board-2-bbb", "sm-board-100-1")

	sig, err := signaling.NewSignalFrame("sm-board-2-bbb", "sm-board-1-aaa", "", signaling.SignalPayload{Kind: signaling.SignalOffer, SDP: "v=0"})
	if err != nil {
		t.Fatal(err)
	}
	h.inbound <- inbound{client: b, frame: sig}

	got := recvFrame(t, a)
	if got.Type != signaling.FrameSignal || got.SRC != "sm-board-2-bbb" {
		t.Fatalf("forwarded frame = %+v", got)
	}
}

func TestAliasResolvesToOwner(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := newTestClient(h)
	b := newTestClient(h)
	registerClient(t, h, a, "sm-board-1-aaa", "sm-board-100-0")
	registerClient(t, h, b, "sm-board-2-bbb")

	// Dial the guessed alias, not the primary identifier.
	sig, err := signaling.NewSignalFrame("sm-board-2-bbb", "sm-board-100-0", "sm-board-100-0", signaling.SignalPayload{Kind: signaling.SignalOffer, SDP: "v=0"})
	if err != nil {
		t.Fatal(err)
	}
	h.inbound <- inbound{client: b, frame: sig}

	got := recvFrame(t, a)
	if got.Type != signaling.FrameSignal {
		t.Fatalf("frame type = %q", got.Type)
	}
	if got.Ref != "sm-board-100-0" {
		t.Fatalf("ref not preserved: %+v", got)
	}
}

func TestUnknownDestinationAbsent(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := newTestClient(h)
	registerClient(t, h, a, "sm-board-1-aaa")

	sig, err := signaling.NewSignalFrame("sm-board-1-aaa", "sm-board-900-2", "sm-board-900-2", signaling.SignalPayload{Kind: signaling.SignalOffer, SDP: "v=0"})
	if err != nil {
		t.Fatal(err)
	}
	h.inbound <- inbound{client: a, frame: sig}

	got := recvFrame(t, a)
	if got.Type != signaling.FrameAbsent {
		t.Fatalf("frame type = %q, want absent", got.Type)
	}
	if got.Ref != "sm-board-900-2" {
		t.Fatalf("absent reply lost the ref: %+v", got)
	}
}

func TestSpoofedSourceRewritten(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := newTestClient(h)
	b := newTestClient(h)
	registerClient(t, h, a, "sm-board-1-aaa")
	registerClient(t, h, b, "sm-board-2-bbb")

	sig, err := signaling.NewSignalFrame("sm-board-9-zzz", "sm-board-1-aaa", "", signaling.SignalPayload{Kind: signaling.SignalICE})
	if err != nil {
		t.Fatal(err)
	}
	h.inbound <- inbound{client: b, frame: sig}

	got := recvFrame(t, a)
	if got.SRC != "sm-board-2-bbb" {
		t.Fatalf("src = %q, want the registered identifier", got.SRC)
	}
}

func TestDuplicatePrimaryRejected(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := newTestClient(h)
	b := newTestClient(h)
	registerClient(t, h, a, "sm-board-1-aaa")

	h.inbound <- inbound{client: b, frame: signaling.Frame{Type: signaling.FrameRegister, SRC: "sm-board-1-aaa"}}
	got := recvFrame(t, b)
	if got.Type != signaling.FrameError {
		t.Fatalf("frame type = %q, want error", got.Type)
	}
}

func TestAliasFirstWins(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := newTestClient(h)
	b := newTestClient(h)
	c := newTestClient(h)
	registerClient(t, h, a, "sm-board-1-aaa", "sm-board-100-0")
	registerClient(t, h, b, "sm-board-2-bbb", "sm-board-100-0")
	registerClient(t, h, c, "sm-board-3-ccc")

	sig, err := signaling.NewSignalFrame("sm-board-3-ccc", "sm-board-100-0", "", signaling.SignalPayload{Kind: signaling.SignalOffer, SDP: "v=0"})
	if err != nil {
		t.Fatal(err)
	}
	h.inbound <- inbound{client: c, frame: sig}

	got := recvFrame(t, a)
	if got.Type != signaling.FrameSignal {
		t.Fatalf("first registrant did not receive the dial: %+v", got)
	}
	select {
	case f := <-b.Send:
		t.Fatalf("second registrant received %+v", f)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnregisterFreesIdentifiers(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := newTestClient(h)
	b := newTestClient(h)
	registerClient(t, h, a, "sm-board-1-aaa", "sm-board-100-0")
	registerClient(t, h, b, "sm-board-2-bbb")

	// The unregister channel is unbuffered and the hub loop is serial, so once
	// this send completes the drop is processed before any later frame.
	h.unregister <- a

	if got := recvFrame(t, b); got.Type != signaling.FramePeerGone {
		t.Fatalf("expected the departure announcement first, got %+v", got)
	}

	sig, err := signaling.NewSignalFrame("sm-board-2-bbb", "sm-board-100-0", "x", signaling.SignalPayload{Kind: signaling.SignalOffer})
	if err != nil {
		t.Fatal(err)
	}
	h.inbound <- inbound{client: b, frame: sig}

	got := recvFrame(t, b)
	if got.Type != signaling.FrameAbsent {
		t.Fatalf("alias still routed after unregister: %+v", got)
	}
}

func TestDepartureAnnouncedToRemaining(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := newTestClient(h)
	b := newTestClient(h)
	registerClient(t, h, a, "sm-board-1-aaa")
	registerClient(t, h, b, "sm-board-2-bbb")

	h.unregister <- b

	got := recvFrame(t, a)
	if got.Type != signaling.FramePeerGone || got.SRC != "sm-board-2-bbb" {
		t.Fatalf("departure frame = %+v", got)
	}
}
