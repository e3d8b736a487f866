package session

import (
	"time"

	"github.com/danmuck/peerline/internal/protocol/frame"
)

// Config defines transport defaults for sessions.
type Config struct {
	// Node labels logs and metrics for this process.
	Node         string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxSessions caps accepted sessions; zero means unlimited.
	MaxSessions int
	Limits      frame.Limits
	// AcceptBackoff paces retries after temporary accept errors.
	AcceptBackoff BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Node:         "peer",
		DialTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		MaxSessions:  0,
		Limits:       frame.DefaultLimits(),
		AcceptBackoff: BackoffConfig{
			InitialDelay: 5 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     time.Second,
		},
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Node == "" {
		c.Node = d.Node
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.WriteTimeout < 0 {
		c.WriteTimeout = 0
	}
	if c.Limits.MaxPayloadBytes == 0 {
		c.Limits = d.Limits
	}
	if c.AcceptBackoff.InitialDelay <= 0 {
		c.AcceptBackoff = d.AcceptBackoff
	}
	return c
}
