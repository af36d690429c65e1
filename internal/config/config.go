package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default configuration values (production)
const (
	DefaultDomain   = "relay.sketchmesh.dev"
	DefaultSTUN     = "stun:stun.l.google.com:19302"
	DefaultTURN     = "" // Optional, empty by default
	DefaultTURNUser = ""
	DefaultTURNPass = ""

	// Rendezvous timing defaults. The bucket size and fan-out decide how
	// coarse the guessable join addresses are; the lookback decides how far
	// back in time a joiner probes for earlier arrivals.
	DefaultDiscoveryInterval = 5 * time.Second
	DefaultDiscoveryDeadline = 2 * time.Minute
	DefaultBucket            = 10 * time.Second
	DefaultLookback          = 30 * time.Second
	DefaultFanOut            = 3

	// Minimum interval between outbound cursor updates.
	DefaultCursorInterval = 50 * time.Millisecond
)

// Config holds application configuration
type Config struct {
	// Domain is the relay server domain
	Domain string

	// WebSocketURL is constructed from domain
	WebSocketURL string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// Peer discovery tuning
	DiscoveryInterval time.Duration
	DiscoveryDeadline time.Duration
	Bucket            time.Duration
	Lookback          time.Duration
	FanOut            int

	// Cursor broadcast throttle
	CursorInterval time.Duration

	// History enables the stroke log so late joiners can request a replay.
	// Off by default: without it a canvas-state request is answered with an
	// empty payload and new participants only see live strokes.
	History bool
}

// Options for loading config with CLI flag overrides
type Options struct {
	Domain     string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	DiscoveryInterval time.Duration
	DiscoveryDeadline time.Duration
	Bucket            time.Duration
	Lookback          time.Duration
	FanOut            int

	CursorInterval time.Duration
	History        bool
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	domain := stringValue(opts.Domain, "SKETCHMESH_DOMAIN", DefaultDomain)
	stunServer := stringValue(opts.STUNServer, "STUN_SERVER", DefaultSTUN)
	turnServer := stringValue(opts.TURNServer, "TURN_SERVER", DefaultTURN)
	turnUser := stringValue(opts.TURNUser, "TURN_USERNAME", DefaultTURNUser)
	turnPass := stringValue(opts.TURNPass, "TURN_PASSWORD", DefaultTURNPass)

	cfg := &Config{
		Domain:       domain,
		WebSocketURL: fmt.Sprintf("wss://%s/ws", domain),
		STUNServer:   stunServer,
		TURNServer:   turnServer,
		TURNUser:     turnUser,
		TURNPass:     turnPass,

		DiscoveryInterval: durationValue(opts.DiscoveryInterval, "SKETCHMESH_DISCOVERY_INTERVAL", DefaultDiscoveryInterval),
		DiscoveryDeadline: durationValue(opts.DiscoveryDeadline, "SKETCHMESH_DISCOVERY_DEADLINE", DefaultDiscoveryDeadline),
		Bucket:            durationValue(opts.Bucket, "SKETCHMESH_BUCKET", DefaultBucket),
		Lookback:          durationValue(opts.Lookback, "SKETCHMESH_LOOKBACK", DefaultLookback),
		FanOut:            intValue(opts.FanOut, "SKETCHMESH_FANOUT", DefaultFanOut),

		CursorInterval: durationValue(opts.CursorInterval, "SKETCHMESH_CURSOR_INTERVAL", DefaultCursorInterval),
		History:        opts.History,
	}

	if cfg.Bucket <= 0 {
		return nil, fmt.Errorf("discovery bucket must be positive, got %s", cfg.Bucket)
	}
	if cfg.FanOut < 1 {
		return nil, fmt.Errorf("discovery fan-out must be at least 1, got %d", cfg.FanOut)
	}
	if cfg.Lookback < cfg.Bucket {
		return nil, fmt.Errorf("discovery lookback %s is shorter than one bucket %s", cfg.Lookback, cfg.Bucket)
	}

	return cfg, nil
}

func stringValue(flag, env, fallback string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

func durationValue(flag time.Duration, env string, fallback time.Duration) time.Duration {
	if flag > 0 {
		return flag
	}
	if v := os.Getenv(env); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intValue(flag int, env string, fallback int) int {
	if flag > 0 {
		return flag
	}
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
		fmt.Sprintf("turns:%s:5349?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
