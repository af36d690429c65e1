package room

import (
	"strings"
	"testing"
	"time"
)

func TestDeriveDeterministic(t *testing.T) {
	addresses := []string{
		"https://example.com/boards/team-alpha",
		"http://localhost:3000/?session=42",
		"example.com",
		"",
	}

	for _, addr := range addresses {
		first := Derive(addr)
		for i := 0; i < 5; i++ {
			if got := Derive(addr); got != first {
				t.Fatalf("Derive(%q) not deterministic: %q vs %q", addr, got, first)
			}
		}
	}
}

func TestDeriveShape(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"https://example.com/b/1", Prefix + "httpsexamplecomb1"},
		{"HTTPS://EXAMPLE.COM/B/1", Prefix + "httpsexamplecomb1"},
		{"", Prefix},
	}

	for _, tt := range tests {
		if got := Derive(tt.address); got != tt.want {
			t.Errorf("Derive(%q) = %q, want %q", tt.address, got, tt.want)
		}
	}
}

func TestDeriveBounded(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("x", 500)
	got := Derive(long)
	if len(got) > MaxRoomLen {
		t.Fatalf("Derive produced %d chars, limit is %d", len(got), MaxRoomLen)
	}
	if !strings.HasPrefix(got, Prefix) {
		t.Fatalf("Derive result %q missing prefix %q", got, Prefix)
	}
}

func TestDeriveDistinguishesPages(t *testing.T) {
	a := Derive("https://example.com/boards/alpha")
	b := Derive("https://example.com/boards/beta")
	if a == b {
		t.Fatalf("different pages mapped to the same room %q", a)
	}
}

func TestIdentityUniqueness(t *testing.T) {
	const n = 10000
	roomID := Derive("https://example.com/boards/alpha")
	now := time.Now()

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewIdentity(roomID, now, 10*time.Second, 3)
		if _, dup := seen[id.ID]; dup {
			t.Fatalf("duplicate identity after %d draws: %s", i, id.ID)
		}
		seen[id.ID] = struct{}{}
	}
}

func TestIdentityRoomScoped(t *testing.T) {
	roomID := Derive("https://example.com/boards/alpha")
	id := NewIdentity(roomID, time.Now(), 10*time.Second, 3)

	if !InRoom(id.ID, roomID) {
		t.Errorf("identity %q not scoped to room %q", id.ID, roomID)
	}
	if !InRoom(id.Beacon, roomID) {
		t.Errorf("beacon %q not scoped to room %q", id.Beacon, roomID)
	}
	if id.Color == "" {
		t.Error("identity has no color")
	}
}

func TestBeaconQuantized(t *testing.T) {
	roomID := Derive("https://example.com/boards/alpha")
	bucket := 10 * time.Second

	base := time.Unix(1700000000, 0)
	inside := base.Truncate(bucket).Add(3 * time.Second)

	if Beacon(roomID, base.Truncate(bucket), bucket, 1) != Beacon(roomID, inside, bucket, 1) {
		t.Error("times within one bucket produced different beacons")
	}
	if Beacon(roomID, base, bucket, 0) == Beacon(roomID, base, bucket, 1) {
		t.Error("variants produced identical beacons")
	}
	if Beacon(roomID, base, bucket, 0) == Beacon(roomID, base.Add(bucket), bucket, 0) {
		t.Error("adjacent buckets produced identical beacons")
	}
}

func TestIdentityBeaconGuessable(t *testing.T) {
	// A session's beacon must be one of the addresses a peer enumerating the
	// join bucket's fan-out range would produce.
	roomID := Derive("https://example.com/boards/alpha")
	bucket := 10 * time.Second
	fanOut := 3
	now := time.Now()

	id := NewIdentity(roomID, now, bucket, fanOut)

	found := false
	for v := 0; v < fanOut; v++ {
		if id.Beacon == Beacon(roomID, now, bucket, v) {
			found = true
		}
	}
	if !found {
		t.Fatalf("beacon %q outside the guessable range", id.Beacon)
	}
}
