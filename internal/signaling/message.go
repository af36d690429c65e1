package signaling

import "encoding/json"

// Frame represents all WebSocket messages between an endpoint and the relay.
//
// Ref carries the identifier the dialer originally addressed (usually a
// guessed beacon); the relay and the answering side echo it back so the dialer
// can correlate replies with the dial attempt even after the relay resolves
// the beacon to the owner's session identifier.
type Frame struct {
	Type    string          `json:"type"`
	SRC     string          `json:"src,omitempty"`
	DST     string          `json:"dst,omitempty"`
	Ref     string          `json:"ref,omitempty"`
	Aliases []string        `json:"aliases,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Frame type constants.
const (
	FrameRegister   = "register"
	FrameRegistered = "registered"
	FrameSignal     = "signal"
	FrameAbsent     = "absent"
	FramePeerGone   = "peer-gone"
	FrameError      = "error"
)

// Signal payload kinds.
const (
	SignalOffer  = "offer"
	SignalAnswer = "answer"
	SignalICE    = "ice"
)

// SignalPayload represents the WebRTC signaling data (SDP offer/answer or ICE
// candidate) relayed between two endpoints.
type SignalPayload struct {
	Kind      string          `json:"kind"`
	SDP       string          `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// NewSignalFrame builds a signal frame addressed to dst.
func NewSignalFrame(src, dst, ref string, payload SignalPayload) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameSignal, SRC: src, DST: dst, Ref: ref, Payload: raw}, nil
}

// DecodeSignal parses the payload of a signal frame.
func (f Frame) DecodeSignal() (SignalPayload, error) {
	var p SignalPayload
	err := json.Unmarshal(f.Payload, &p)
	return p, err
}
