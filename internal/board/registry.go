package board

// connState tracks a link's lifecycle. Closed entries are evicted rather than
// kept, so the registry only ever holds pending and open links.
type connState int

const (
	connPending connState = iota
	connOpen
)

// conn is the registry's record of one link.
type conn struct {
	link   string // transport link handle
	remote string // resolved remote session identifier, "" while dialing
	dialed string // the candidate identifier we dialed, outbound only
	state  connState

	outbound bool

	// introduced marks that our user-join went out on this link, so the
	// two-way introduction never loops.
	introduced bool
}

// connRegistry is the authoritative local table of links, owned by the engine
// goroutine. Invariant: at most one open-or-pending entry per resolved remote
// identifier; duplicates are coalesced by the engine before they ever land
// here.
type connRegistry struct {
	byLink   map[string]*conn
	byRemote map[string]*conn
	dialing  map[string]*conn  // by dialed candidate, until resolved or failed
	resolved map[string]string // dialed candidate -> remote that answered it
}

func newConnRegistry() *connRegistry {
	return &connRegistry{
		byLink:   make(map[string]*conn),
		byRemote: make(map[string]*conn),
		dialing:  make(map[string]*conn),
		resolved: make(map[string]string),
	}
}

// beginDial records an outbound attempt to a guessed candidate.
func (r *connRegistry) beginDial(candidate, link string) *conn {
	c := &conn{link: link, dialed: candidate, state: connPending, outbound: true}
	r.byLink[link] = c
	r.dialing[candidate] = c
	return c
}

// shouldDial reports whether a candidate is worth dialing: not already in
// flight and not known to resolve to a remote we hold a link with.
func (r *connRegistry) shouldDial(candidate string) bool {
	if _, inFlight := r.dialing[candidate]; inFlight {
		return false
	}
	if remote, ok := r.resolved[candidate]; ok {
		if _, live := r.byRemote[remote]; live {
			return false
		}
	}
	return true
}

// noteResolution remembers which remote answered a dialed candidate. Kept even
// when the attempt loses coalescing: without it, rediscovery would redial a
// beacon the room already holds a link behind.
func (r *connRegistry) noteResolution(candidate, remote string) {
	if candidate != "" && remote != "" {
		r.resolved[candidate] = remote
	}
}

// dropDial discards an attempt whose candidate turned out not to exist.
func (r *connRegistry) dropDial(candidate string) *conn {
	c, ok := r.dialing[candidate]
	if !ok {
		return nil
	}
	delete(r.dialing, candidate)
	delete(r.byLink, c.link)
	return c
}

// get returns the record behind a link handle.
func (r *connRegistry) get(link string) *conn {
	return r.byLink[link]
}

// byRemoteID returns the registered record for a remote, if any.
func (r *connRegistry) byRemoteID(remote string) *conn {
	return r.byRemote[remote]
}

// open marks a link established and binds it to its resolved remote. The
// caller has already coalesced duplicates.
func (r *connRegistry) open(c *conn, remote string) {
	c.remote = remote
	c.state = connOpen
	r.byRemote[remote] = c
	if c.dialed != "" {
		delete(r.dialing, c.dialed)
	}
}

// track registers a link the transport accepted for us.
func (r *connRegistry) track(link string) *conn {
	c := &conn{link: link, state: connPending}
	r.byLink[link] = c
	return c
}

// drop evicts a record. Returns true when the record owned its remote's
// registry slot, meaning dependent presence state must go too.
func (r *connRegistry) drop(c *conn) bool {
	delete(r.byLink, c.link)
	if c.dialed != "" && r.dialing[c.dialed] == c {
		delete(r.dialing, c.dialed)
	}
	if c.remote != "" && r.byRemote[c.remote] == c {
		delete(r.byRemote, c.remote)
		return true
	}
	return false
}

// openConns returns every established link.
func (r *connRegistry) openConns() []*conn {
	out := make([]*conn, 0, len(r.byRemote))
	for _, c := range r.byRemote {
		if c.state == connOpen {
			out = append(out, c)
		}
	}
	return out
}
