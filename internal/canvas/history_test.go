package canvas

import (
	"testing"

	"github.com/sketchmesh/sketchmesh/internal/protocol"
)

func stroke(x float64) protocol.Stroke {
	return protocol.Stroke{X: x, Y: x, Color: "#3498db", Type: protocol.StrokeDraw, UserID: "u1"}
}

func TestSnapshotRoundTrip(t *testing.T) {
	h := NewHistory()
	h.Append(protocol.Stroke{X: 1, Y: 2, Color: "#e74c3c", Type: protocol.StrokeStart, UserID: "u1"})
	h.Append(stroke(3))

	data, err := h.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	got, err := Restore(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("restored %d strokes, want 2", len(got))
	}
	if got[0].Type != protocol.StrokeStart || got[1].X != 3 {
		t.Fatalf("restored strokes = %+v", got)
	}
}

func TestEmptySnapshotIsNil(t *testing.T) {
	h := NewHistory()
	data, err := h.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Fatalf("empty log produced a %d-byte snapshot", len(data))
	}
}

func TestResetDropsLog(t *testing.T) {
	h := NewHistory()
	h.Append(stroke(1))
	h.Append(stroke(2))
	h.Reset()

	if h.Len() != 0 {
		t.Fatalf("len = %d after reset", h.Len())
	}
	data, err := h.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Fatal("snapshot after reset should be nil")
	}
}

func TestLimitDiscardsOldest(t *testing.T) {
	h := NewHistoryWithLimit(3)
	for i := 1; i <= 5; i++ {
		h.Append(stroke(float64(i)))
	}

	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
	data, err := h.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Restore(data)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].X != 3 || got[2].X != 5 {
		t.Fatalf("kept strokes = %+v, want the newest three", got)
	}
}
