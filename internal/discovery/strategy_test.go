package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/sketchmesh/sketchmesh/internal/room"
)

func TestCandidatesCoverLookback(t *testing.T) {
	roomID := room.Derive("https://example.com/boards/alpha")
	s := TimeBucket{Bucket: 10 * time.Second, Lookback: 30 * time.Second, FanOut: 3}
	now := time.Unix(1700000123, 0)

	// A peer that joined anywhere inside the lookback window must be
	// guessable, whatever variant it happened to pick.
	for _, ago := range []time.Duration{0, 4 * time.Second, 9 * time.Second, 15 * time.Second, 29 * time.Second} {
		joined := now.Add(-ago)
		for v := 0; v < s.FanOut; v++ {
			beacon := room.Beacon(roomID, joined, s.Bucket, v)
			if !contains(s.Candidates(roomID, now), beacon) {
				t.Errorf("peer joined %s ago, variant %d: beacon %q not guessed", ago, v, beacon)
			}
		}
	}
}

func TestCandidatesBounded(t *testing.T) {
	roomID := room.Derive("https://example.com/boards/alpha")
	s := TimeBucket{Bucket: 10 * time.Second, Lookback: 30 * time.Second, FanOut: 3}

	got := s.Candidates(roomID, time.Now())

	// Buckets in the window times fan-out, at most.
	max := (int(s.Lookback/s.Bucket) + 1) * s.FanOut
	if len(got) == 0 || len(got) > max {
		t.Fatalf("candidate count %d outside (0, %d]", len(got), max)
	}

	seen := make(map[string]struct{})
	for _, c := range got {
		if _, dup := seen[c]; dup {
			t.Fatalf("duplicate candidate %q", c)
		}
		seen[c] = struct{}{}
	}
}

func TestSchedulerStopsAtDeadline(t *testing.T) {
	roomID := room.Derive("https://example.com/boards/alpha")
	s := NewScheduler(roomID, TimeBucket{Bucket: time.Second, Lookback: time.Second, FanOut: 1}, 10*time.Millisecond, 100*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	batches := 0
	for range s.Batches() {
		batches++
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop at its deadline")
	}
	if batches == 0 {
		t.Fatal("scheduler produced no batches before the deadline")
	}
}

func TestSchedulerHonorsCancel(t *testing.T) {
	roomID := room.Derive("https://example.com/boards/alpha")
	s := NewScheduler(roomID, TimeBucket{Bucket: time.Second, Lookback: time.Second, FanOut: 1}, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler ignored cancellation")
	}
}

func contains(list []string, want string) bool {
	for _, c := range list {
		if c == want {
			return true
		}
	}
	return false
}
