package discovery

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler periodically produces candidate batches for a room. It stops on
// its own after Deadline so a long-lived session does not probe forever; tardy
// joiners past that window find us instead, through their own discovery.
type Scheduler struct {
	RoomID   string
	Strategy Strategy
	Interval time.Duration
	Deadline time.Duration

	batches chan []string
}

// NewScheduler wires a scheduler for the room.
func NewScheduler(roomID string, strategy Strategy, interval, deadline time.Duration) *Scheduler {
	return &Scheduler{
		RoomID:   roomID,
		Strategy: strategy,
		Interval: interval,
		Deadline: deadline,
		batches:  make(chan []string, 4),
	}
}

// Batches returns the stream of candidate batches. Closed once discovery
// finishes.
func (s *Scheduler) Batches() <-chan []string {
	return s.batches
}

// Run produces an immediate batch, then one per interval until the deadline
// passes or ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.batches)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	deadline := time.NewTimer(s.Deadline)
	defer deadline.Stop()

	s.publish(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-deadline.C:
			slog.Debug("discovery window over", "room", s.RoomID)
			return

		case <-ticker.C:
			s.publish(ctx)
		}
	}
}

func (s *Scheduler) publish(ctx context.Context) {
	batch := s.Strategy.Candidates(s.RoomID, time.Now())
	if len(batch) == 0 {
		return
	}
	select {
	case s.batches <- batch:
	case <-ctx.Done():
	default:
		// The session loop is behind; this batch is stale by the next tick
		// anyway.
	}
}
