package protocol

import (
	"bytes"
	"testing"
)

func TestUserJoinRoundTrip(t *testing.T) {
	raw, err := Encode(NewUserJoin(User{ID: "sm-board-17-abc", Color: "#e74c3c"}))
	if err != nil {
		t.Fatal(err)
	}

	f, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != TypeUserJoin {
		t.Fatalf("type = %q", f.Type)
	}
	if f.User == nil || f.User.ID != "sm-board-17-abc" || f.User.Color != "#e74c3c" {
		t.Fatalf("user = %+v", f.User)
	}
}

func TestDrawingCarriesSegment(t *testing.T) {
	s := Stroke{X: 10, Y: 20, PrevX: 5, PrevY: 15, Color: "#3498db", Type: StrokeDraw, UserID: "u1"}
	raw, err := Encode(NewDrawing(s))
	if err != nil {
		t.Fatal(err)
	}

	f, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if f.DrawingData == nil || *f.DrawingData != s {
		t.Fatalf("drawingData = %+v, want %+v", f.DrawingData, s)
	}
}

func TestCanvasStateNullPayload(t *testing.T) {
	raw, err := Encode(NewCanvasState(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(raw, []byte(`"imageData":null`)) {
		t.Fatalf("empty reply must carry an explicit null, got %s", raw)
	}

	f, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Snapshot(); ok {
		t.Fatal("null payload decoded as a snapshot")
	}
}

func TestCanvasStateOpaquePayload(t *testing.T) {
	snapshot := []byte{0x93, 0x01, 0x02, 0x03}
	raw, err := Encode(NewCanvasState(snapshot))
	if err != nil {
		t.Fatal(err)
	}

	f, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := f.Snapshot()
	if !ok {
		t.Fatal("snapshot missing")
	}
	if !bytes.Equal(got, snapshot) {
		t.Fatalf("snapshot = %x, want %x", got, snapshot)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	f, err := Decode([]byte(`{"type":"ping"}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != "ping" {
		t.Fatalf("type = %q", f.Type)
	}
}
