// Package room derives the shared rendezvous namespace and the per-session
// identity from a page address. Everything here is pure: no I/O, no failure
// modes, so two sessions that load the same address always agree on the room.
package room

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Prefix tags every room so transport identifiers are recognizable.
	Prefix = "sm-"

	// MaxRoomLen bounds the room string to stay within identifier limits of
	// the transport layer.
	MaxRoomLen = 40
)

// Derive maps a page address to a stable room identifier. Deterministic and
// idempotent: the same address always yields the same room. Non-alphanumeric
// characters are stripped and the result is truncated, so very long addresses
// that share a prefix can collide; acceptable for casual use.
func Derive(address string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(address) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	s := b.String()
	if max := MaxRoomLen - len(Prefix); len(s) > max {
		s = s[:max]
	}
	return Prefix + s
}

// Beacon builds the guessable rendezvous address a session in the given room
// announces for the bucket containing t. Peers enumerate recent buckets and a
// small range of variants to find each other without any membership directory.
func Beacon(roomID string, t time.Time, bucket time.Duration, variant int) string {
	start := t.Truncate(bucket)
	return fmt.Sprintf("%s-%d-%d", roomID, start.UnixMilli(), variant)
}
