package transport

// EventKind enumerates everything an endpoint reports upward. The consumer
// runs a single loop over these, so nothing in this package calls back into
// consumer state.
type EventKind int

const (
	// EndpointUp fires when the relay has acknowledged our registration,
	// including after a reconnect.
	EndpointUp EventKind = iota

	// EndpointDown fires when the relay connection drops; the client keeps
	// redialing in the background.
	EndpointDown

	// EndpointError fires on a fatal relay-level refusal.
	EndpointError

	// LinkOpen fires once a link's data channel is usable. Remote carries the
	// peer's resolved session identifier.
	LinkOpen

	// LinkData carries one inbound wire frame.
	LinkData

	// LinkClosed fires when an established or pending link went away cleanly.
	LinkClosed

	// LinkError fires when a link failed; treated like LinkClosed plus a cause.
	LinkError

	// CandidateAbsent reports that a dialed identifier does not exist. This is
	// the expected outcome for most discovery guesses, not a fault.
	CandidateAbsent
)

// Event is the endpoint's report to the session loop above it.
type Event struct {
	Kind   EventKind
	Link   string // endpoint-local link handle
	Remote string // remote session identifier, when known
	Ref    string // the identifier originally dialed, for outbound links
	Data   []byte
	Err    error
}
