package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Domain != DefaultDomain {
		t.Errorf("Domain = %q, want %q", cfg.Domain, DefaultDomain)
	}
	if want := "wss://" + DefaultDomain + "/ws"; cfg.WebSocketURL != want {
		t.Errorf("WebSocketURL = %q, want %q", cfg.WebSocketURL, want)
	}
	if cfg.Bucket != DefaultBucket || cfg.Lookback != DefaultLookback || cfg.FanOut != DefaultFanOut {
		t.Errorf("discovery tuning = %s/%s/%d, want defaults", cfg.Bucket, cfg.Lookback, cfg.FanOut)
	}
	if cfg.History {
		t.Error("History should be off by default")
	}
}

func TestFlagBeatsEnv(t *testing.T) {
	t.Setenv("SKETCHMESH_DOMAIN", "env.example.com")
	t.Setenv("SKETCHMESH_FANOUT", "7")

	cfg, err := Load(Options{Domain: "flag.example.com"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Domain != "flag.example.com" {
		t.Errorf("Domain = %q, want flag value", cfg.Domain)
	}
	if cfg.FanOut != 7 {
		t.Errorf("FanOut = %d, want env value 7", cfg.FanOut)
	}
	if want := "wss://flag.example.com/ws"; cfg.WebSocketURL != want {
		t.Errorf("WebSocketURL = %q, want %q", cfg.WebSocketURL, want)
	}
}

func TestEnvDurations(t *testing.T) {
	t.Setenv("SKETCHMESH_BUCKET", "2s")
	t.Setenv("SKETCHMESH_LOOKBACK", "8s")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bucket != 2*time.Second || cfg.Lookback != 8*time.Second {
		t.Errorf("bucket/lookback = %s/%s, want 2s/8s", cfg.Bucket, cfg.Lookback)
	}
}

func TestValidation(t *testing.T) {
	t.Run("zero fan-out", func(t *testing.T) {
		t.Setenv("SKETCHMESH_FANOUT", "0")
		if _, err := Load(Options{}); err == nil {
			t.Error("expected validation error")
		}
	})
	t.Run("lookback under bucket", func(t *testing.T) {
		opts := Options{Bucket: 10 * time.Second, Lookback: 3 * time.Second}
		if _, err := Load(opts); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestTURNServerExpansion(t *testing.T) {
	cfg, err := Load(Options{TURNServer: "turn:turn.example.com"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	urls := cfg.GetTURNServers()
	if len(urls) != 3 {
		t.Fatalf("got %d TURN URLs, want 3", len(urls))
	}

	none, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := none.GetTURNServers(); got != nil {
		t.Errorf("unconfigured TURN should yield nil, got %v", got)
	}
}
