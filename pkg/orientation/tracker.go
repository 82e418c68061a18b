package orientation

import (
	"context"
	"log/slog"
	"sync"
)

// Tracker keeps the last observed orientation. It has a single writer (the
// sensor subscription) and any number of readers.
type Tracker struct {
	sensor Sensor
	logger *slog.Logger

	mu          sync.RWMutex
	current     Orientation
	unsubscribe func()
}

// NewTracker creates a tracker for sensor. A nil logger uses slog.Default().
func NewTracker(sensor Sensor, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		sensor: sensor,
		logger: logger.With("component", "orientation"),
	}
}

// Start subscribes to change notifications and takes an initial reading.
// Calling Start twice is a no-op.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.unsubscribe != nil {
		t.mu.Unlock()
		return nil
	}
	t.unsubscribe = t.sensor.Subscribe(t.observe)
	t.mu.Unlock()

	raw, err := t.sensor.Current(ctx)
	if err != nil {
		t.logger.Warn("initial orientation read failed", "error", err)
		return err
	}
	t.observe(raw)
	return nil
}

// Stop removes the subscription. Safe to call when not started.
func (t *Tracker) Stop() {
	t.mu.Lock()
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Current returns the last observed orientation. May be briefly stale.
func (t *Tracker) Current() Orientation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func (t *Tracker) observe(raw Raw) {
	o := Collapse(raw)

	t.mu.Lock()
	changed := o != t.current
	t.current = o
	t.mu.Unlock()

	if changed {
		t.logger.Debug("orientation changed", "raw", string(raw), "orientation", o.String())
	}
}
