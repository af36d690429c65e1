package board

import (
	"log/slog"

	"github.com/sketchmesh/sketchmesh/internal/canvas"
	"github.com/sketchmesh/sketchmesh/internal/protocol"
)

// route dispatches one decoded frame from an open link. Remote frames are
// applied locally and never forwarded: every pair of participants shares a
// direct link, so relaying would only duplicate strokes.
func (e *Engine) route(c *conn, f protocol.Frame) {
	switch f.Type {
	case protocol.TypeUserJoin:
		if f.User == nil || f.User.ID == "" {
			return
		}
		e.presence.upsert(f.User.ID, f.User.Color)
		if !c.introduced {
			e.sendTo(c, protocol.NewUserJoin(protocol.User{ID: e.identity.ID, Color: e.identity.Color}))
			c.introduced = true
		}
		e.publish()

	case protocol.TypeDrawing:
		if f.DrawingData == nil {
			return
		}
		e.renderer.DrawStroke(*f.DrawingData)
		if e.history != nil {
			e.history.Append(*f.DrawingData)
		}

	case protocol.TypeCursor:
		e.presence.setCursor(c.remote, f.X, f.Y)
		e.renderer.MoveCursor(c.remote, f.X, f.Y)

	case protocol.TypeClear:
		e.renderer.Clear()
		if e.history != nil {
			e.history.Reset()
		}

	case protocol.TypeRequestCanvasState:
		e.sendTo(c, protocol.NewCanvasState(e.snapshotHistory()))

	case protocol.TypeCanvasState:
		e.applyCanvasState(c, f)

	default:
		slog.Debug("unhandled frame", "type", f.Type, "remote", c.remote)
	}
}

func (e *Engine) snapshotHistory() []byte {
	if e.history == nil {
		return nil
	}
	snap, err := e.history.Snapshot()
	if err != nil {
		slog.Warn("history snapshot failed", "error", err)
		return nil
	}
	return snap
}

// applyCanvasState replays a peer's stroke log. Peers without history answer
// with an empty payload; the join proceeds and the backlog is simply lost.
func (e *Engine) applyCanvasState(c *conn, f protocol.Frame) {
	snap, ok := f.Snapshot()
	if !ok {
		slog.Debug("peer has no canvas history", "remote", c.remote)
		return
	}

	strokes, err := canvas.Restore(snap)
	if err != nil {
		slog.Warn("unusable canvas state", "remote", c.remote, "error", err)
		return
	}

	for _, s := range strokes {
		e.renderer.DrawStroke(s)
		if e.history != nil {
			e.history.Append(s)
		}
	}
	slog.Info("canvas restored", "remote", c.remote, "strokes", len(strokes))
}

func (e *Engine) sendTo(c *conn, f protocol.Frame) {
	data, err := protocol.Encode(f)
	if err != nil {
		slog.Warn("frame encode failed", "type", f.Type, "error", err)
		return
	}
	if err := e.endpoint.Send(c.link, data); err != nil {
		slog.Warn("send failed", "remote", c.remote, "error", err)
	}
}

// broadcast fans one frame out to every open link. Per-link failures are
// logged and skipped; the link's own close event handles cleanup.
func (e *Engine) broadcast(f protocol.Frame) {
	conns := e.conns.openConns()
	if len(conns) == 0 {
		return
	}

	data, err := protocol.Encode(f)
	if err != nil {
		slog.Warn("frame encode failed", "type", f.Type, "error", err)
		return
	}
	for _, c := range conns {
		if err := e.endpoint.Send(c.link, data); err != nil {
			slog.Warn("broadcast send failed", "remote", c.remote, "error", err)
		}
	}
}
