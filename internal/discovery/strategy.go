// Package discovery guesses the rendezvous addresses other sessions in the
// same room are announcing right now. There is no membership directory, so
// convergence is probabilistic: likely under reasonable clock skew and join
// cadence, never guaranteed.
package discovery

import (
	"time"

	"github.com/sketchmesh/sketchmesh/internal/room"
)

// Strategy synthesizes candidate identifiers for a room at a point in time.
// It is an interface so the guessing scheme can be swapped (for example, for
// an announcement-list rendezvous) without touching connection handling.
type Strategy interface {
	Candidates(roomID string, now time.Time) []string
}

// TimeBucket enumerates the beacons of every join bucket inside a lookback
// window, with FanOut variants per bucket to cover simultaneous joins.
type TimeBucket struct {
	Bucket   time.Duration
	Lookback time.Duration
	FanOut   int
}

func (s TimeBucket) Candidates(roomID string, now time.Time) []string {
	seen := make(map[string]struct{})
	var out []string

	for off := time.Duration(0); off <= s.Lookback; off += s.Bucket {
		at := now.Add(-off)
		for v := 0; v < s.FanOut; v++ {
			c := room.Beacon(roomID, at, s.Bucket, v)
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
