package room

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Palette holds the display colors participants draw in. Drawn uniformly at
// random; two participants picking the same color is allowed.
var Palette = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12",
	"#9b59b6", "#1abc9c", "#e67e22", "#34495e",
}

// Identity is the session's identity within a room, created once per session
// lifetime and immutable afterwards.
//
// ID is globally unique: the room, the join wall-clock millis, and a random
// token. Beacon is the guessable alias for the join bucket that other sessions
// can synthesize from the room and the clock alone; the transport registers
// both, and a link dialed via the beacon resolves to the ID.
type Identity struct {
	ID       string
	Beacon   string
	Color    string
	JoinedAt time.Time
}

// NewIdentity allocates a session identity for the room. bucket and fanOut
// must match the discovery configuration, otherwise peers guess addresses this
// session never announced.
func NewIdentity(roomID string, now time.Time, bucket time.Duration, fanOut int) Identity {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	variant := rand.IntN(fanOut)

	return Identity{
		ID:       fmt.Sprintf("%s-%d-%s", roomID, now.UnixMilli(), token),
		Beacon:   Beacon(roomID, now, bucket, variant),
		Color:    Palette[rand.IntN(len(Palette))],
		JoinedAt: now,
	}
}

// InRoom reports whether id belongs to the given room.
func InRoom(id, roomID string) bool {
	return strings.HasPrefix(id, roomID+"-")
}
