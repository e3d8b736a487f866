package session

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig shapes the delay between accept retries.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// nextBackoffDelay returns the delay before retry attempt (1-based).
func nextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 || cfg.InitialDelay <= 0 {
		return cfg.InitialDelay
	}
	mult := cfg.Multiplier
	if mult < 1.0 {
		mult = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter && rng != nil {
		delay *= 0.5 + rng.Float64()
	}
	return time.Duration(delay)
}
