package board

import "github.com/sketchmesh/sketchmesh/internal/protocol"

// Renderer is the drawing surface collaborator. The engine tells it what to
// draw; how pixels get on screen is not this package's problem. Calls arrive
// from the engine goroutine only.
type Renderer interface {
	DrawStroke(s protocol.Stroke)
	Clear()
	MoveCursor(id string, x, y float64)
	RemoveCursor(id string)
}

// NopRenderer discards everything; useful for headless sessions.
type NopRenderer struct{}

func (NopRenderer) DrawStroke(protocol.Stroke)          {}
func (NopRenderer) Clear()                              {}
func (NopRenderer) MoveCursor(string, float64, float64) {}
func (NopRenderer) RemoveCursor(string)                 {}
