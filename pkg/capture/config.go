package capture

import (
	"log/slog"
	"time"
)

// DefaultInterval is the time between automatic captures.
const DefaultInterval = 3000 * time.Millisecond

// TickerFunc starts a ticker and returns its channel and stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// RealTicker wraps time.NewTicker.
func RealTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Config holds loop configuration.
type Config struct {
	// Interval between automatic captures.
	Interval time.Duration

	// CycleTimeout bounds one capture-detect cycle. 0 means none.
	CycleTimeout time.Duration

	// NewTicker creates the cadence timer. Defaults to RealTicker.
	NewTicker TickerFunc

	// OnState is called after every state change.
	OnState func(State)

	// OnCycle is called with the record of every finished cycle.
	OnCycle func(Cycle)

	Logger *slog.Logger
}

// DefaultConfig returns a 3 second cadence with no cycle timeout.
func DefaultConfig() Config {
	return Config{
		Interval:  DefaultInterval,
		NewTicker: RealTicker,
		Logger:    slog.Default(),
	}
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.NewTicker == nil {
		c.NewTicker = RealTicker
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
