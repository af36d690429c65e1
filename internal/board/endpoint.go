package board

import "github.com/sketchmesh/sketchmesh/internal/transport"

// Endpoint is the slice of the transport the engine needs. *transport.Endpoint
// implements it; tests substitute an in-memory fabric.
type Endpoint interface {
	Open() error
	Connect(candidate string) string
	Send(link string, data []byte) error
	Close(link string)
	Events() <-chan transport.Event
	Shutdown()
}
