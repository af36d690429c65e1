// Package canvas keeps an optional in-memory log of strokes so a session can
// answer canvas-state requests with a replayable snapshot. Without it, late
// joiners only ever see live strokes.
package canvas

import (
	"github.com/sketchmesh/sketchmesh/internal/protocol"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultLimit bounds the log; beyond it the oldest strokes are discarded.
const DefaultLimit = 10000

// History is a bounded stroke log. It is owned by the session loop and must
// not be shared across goroutines.
type History struct {
	strokes []protocol.Stroke
	limit   int
}

// NewHistory creates a log with the default bound.
func NewHistory() *History {
	return &History{limit: DefaultLimit}
}

// NewHistoryWithLimit creates a log that keeps at most limit strokes.
func NewHistoryWithLimit(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{limit: limit}
}

// Append records one stroke, discarding the oldest if the log is full.
func (h *History) Append(s protocol.Stroke) {
	if len(h.strokes) >= h.limit {
		n := copy(h.strokes, h.strokes[1:])
		h.strokes = h.strokes[:n]
	}
	h.strokes = append(h.strokes, s)
}

// Reset drops everything; called when the surface is cleared.
func (h *History) Reset() {
	h.strokes = h.strokes[:0]
}

// Len returns the number of recorded strokes.
func (h *History) Len() int {
	return len(h.strokes)
}

// Snapshot encodes the log into the opaque payload carried by a canvas-state
// frame. Returns nil when there is nothing to replay.
func (h *History) Snapshot() ([]byte, error) {
	if len(h.strokes) == 0 {
		return nil, nil
	}
	return msgpack.Marshal(h.strokes)
}

// Restore decodes a snapshot produced by another session's log.
func Restore(data []byte) ([]protocol.Stroke, error) {
	var strokes []protocol.Stroke
	if err := msgpack.Unmarshal(data, &strokes); err != nil {
		return nil, err
	}
	return strokes, nil
}
