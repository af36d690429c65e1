package transport

import (
	pion "github.com/pion/webrtc/v4"
)

// link tracks one peer connection and its data channel. Fields are guarded by
// the endpoint's mutex: pion callbacks and the signaling loop both touch them.
type link struct {
	id     string
	remote string // peer's primary session identifier, once learned
	ref    string // the identifier we dialed (outbound links only)

	pc *pion.PeerConnection
	dc *pion.DataChannel

	// ICE candidates that arrived before the remote description was set.
	pendingICE []pion.ICECandidateInit
	remoteSet  bool

	opened bool
	closed bool
}

// dst is where signaling frames for this link should be addressed: the
// resolved remote once known, otherwise the identifier that was dialed.
func (l *link) dst() string {
	if l.remote != "" {
		return l.remote
	}
	return l.ref
}
