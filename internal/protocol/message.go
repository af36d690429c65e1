// Package protocol defines the frames exchanged between participants over an
// established data channel. One JSON object per frame. Frames are best-effort:
// never acknowledged, never retried, ordered only within a single link.
package protocol

import (
	"encoding/base64"
	"encoding/json"
)

// Frame type constants.
const (
	TypeUserJoin           = "user-join"
	TypeDrawing            = "drawing"
	TypeCursor             = "cursor"
	TypeClear              = "clear"
	TypeRequestCanvasState = "request-canvas-state"
	TypeCanvasState        = "canvas-state"
)

// Stroke kind constants.
const (
	StrokeStart = "start"
	StrokeDraw  = "draw"
)

// User identifies a participant and its display color.
type User struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

// Stroke is one segment of a drawing gesture. Transient: rendered on receipt
// and not retained unless the history log is enabled.
type Stroke struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	PrevX  float64 `json:"prevX"`
	PrevY  float64 `json:"prevY"`
	Color  string  `json:"color"`
	Type   string  `json:"type"`
	UserID string  `json:"userId"`
}

// Frame is the tagged union carried on the wire. Exactly the fields for the
// frame's type are populated.
type Frame struct {
	Type        string          `json:"type"`
	User        *User           `json:"user,omitempty"`
	DrawingData *Stroke         `json:"drawingData,omitempty"`
	X           float64         `json:"x,omitempty"`
	Y           float64         `json:"y,omitempty"`
	ImageData   json.RawMessage `json:"imageData,omitempty"`
}

func NewUserJoin(u User) Frame {
	return Frame{Type: TypeUserJoin, User: &u}
}

func NewDrawing(s Stroke) Frame {
	return Frame{Type: TypeDrawing, DrawingData: &s}
}

func NewCursor(x, y float64) Frame {
	return Frame{Type: TypeCursor, X: x, Y: y}
}

func NewClear() Frame {
	return Frame{Type: TypeClear}
}

func NewCanvasStateRequest() Frame {
	return Frame{Type: TypeRequestCanvasState}
}

// NewCanvasState builds a canvas-state reply. A nil snapshot means no history
// is available and is carried as an explicit null, which the requester must
// tolerate.
func NewCanvasState(snapshot []byte) Frame {
	f := Frame{Type: TypeCanvasState, ImageData: json.RawMessage("null")}
	if snapshot != nil {
		encoded, _ := json.Marshal(base64.StdEncoding.EncodeToString(snapshot))
		f.ImageData = encoded
	}
	return f
}

// Snapshot extracts the opaque canvas payload from a canvas-state frame.
// Returns ok=false for an absent or null payload.
func (f Frame) Snapshot() ([]byte, bool) {
	if len(f.ImageData) == 0 || string(f.ImageData) == "null" {
		return nil, false
	}
	var s string
	if err := json.Unmarshal(f.ImageData, &s); err != nil {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// Encode serializes a frame for the wire.
func Encode(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// Decode parses a wire frame. Unknown types are returned as-is; the router
// decides whether to ignore them.
func Decode(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}
