// internal/match/config.go
//
// Tunable durations for match supervision. All deadlines are written into
// the shared document as absolute timestamps; each client compares them
// against its own wall clock, which is acceptable at second granularity.
package match

import "time"

// Config carries the timer durations and the transaction retry bound.
type Config struct {
	// TurnTimeout forfeits the current player's turn (PvP: the round).
	TurnTimeout time.Duration
	// RoundTimeout ends a PvP round as a draw.
	RoundTimeout time.Duration
	// MatchTimeout ends the match as a draw.
	MatchTimeout time.Duration
	// HardStop is the absolute ceiling from match start; it overrides every
	// other timer and pending sub-state.
	HardStop time.Duration
	// LobbyGrace closes a waiting session after all players left.
	LobbyGrace time.Duration
	// InactivityTimeout closes an idle in-progress session.
	InactivityTimeout time.Duration
	// DisconnectGrace is the countdown before a partial-connectivity match
	// completes as a system draw.
	DisconnectGrace time.Duration
	// MaxRetries bounds the compare-and-swap retry loop per command.
	MaxRetries int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		TurnTimeout:       60 * time.Second,
		RoundTimeout:      5 * time.Minute,
		MatchTimeout:      10 * time.Minute,
		HardStop:          30 * time.Minute,
		LobbyGrace:        2 * time.Minute,
		InactivityTimeout: 10 * time.Minute,
		DisconnectGrace:   60 * time.Second,
		MaxRetries:        5,
	}
}

// withDefaults fills zero fields so a partially populated Config is usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = d.TurnTimeout
	}
	if c.RoundTimeout <= 0 {
		c.RoundTimeout = d.RoundTimeout
	}
	if c.MatchTimeout <= 0 {
		c.MatchTimeout = d.MatchTimeout
	}
	if c.HardStop <= 0 {
		c.HardStop = d.HardStop
	}
	if c.LobbyGrace <= 0 {
		c.LobbyGrace = d.LobbyGrace
	}
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = d.InactivityTimeout
	}
	if c.DisconnectGrace <= 0 {
		c.DisconnectGrace = d.DisconnectGrace
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	return c
}
