package capture

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/naveye-assist/pkg/announce"
	"github.com/teslashibe/naveye-assist/pkg/orientation"
	"github.com/teslashibe/naveye-assist/pkg/position"
	"github.com/teslashibe/naveye-assist/pkg/vision"
)

// Trigger names what started a cycle.
type Trigger string

const (
	TriggerTimer  Trigger = "timer"
	TriggerButton Trigger = "button"
)

// Cycle records one capture-detect-announce pass.
type Cycle struct {
	ID          string                  `json:"id"`
	Trigger     Trigger                 `json:"trigger"`
	StartedAt   time.Time               `json:"started_at"`
	Duration    time.Duration           `json:"duration"`
	Orientation orientation.Orientation `json:"orientation"`
	Detection   *vision.Detection       `json:"detection,omitempty"`
	Label       position.Label          `json:"label,omitempty"`
	Err         string                  `json:"error,omitempty"`
	Event       announce.Event          `json:"event"`
}

// runCycle captures, detects, classifies and announces. It never fails: any
// error becomes a single "Error" announcement.
func (l *Loop) runCycle(ctx context.Context, trigger Trigger) Cycle {
	c := Cycle{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
	logger := l.logger.With("cycle", c.ID, "trigger", trigger)

	if l.config.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.CycleTimeout)
		defer cancel()
	}

	fail := func(stage string, err error) Cycle {
		logger.Error("cycle failed", "stage", stage, "error", err)
		c.Err = err.Error()
		c.Event = l.announcer.AnnounceError()
		c.Duration = time.Since(c.StartedAt)
		return c
	}

	frame, err := l.camera.Capture(ctx)
	l.acquired()
	if err != nil {
		return fail("capture", err)
	}

	det, err := l.detector.Detect(ctx, frame)
	if err != nil {
		return fail("detect", err)
	}

	if l.orientation != nil {
		c.Orientation = l.orientation.Current()
	}

	if det == nil {
		c.Event = l.announcer.AnnounceNone()
	} else {
		c.Detection = det
		c.Label = position.Classify(det.Box, c.Orientation)
		c.Event = l.announcer.Announce(det.Name, c.Label)
	}

	c.Duration = time.Since(c.StartedAt)
	logger.Debug("cycle complete",
		"kind", c.Event.Kind,
		"orientation", c.Orientation,
		"duration_ms", c.Duration.Milliseconds(),
	)
	return c
}
