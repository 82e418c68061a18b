// Package capture runs the periodic capture, detect and announce loop.
//
// The loop has three states. It is idle between cycles, capturing while a
// cycle is in flight and paused after Pause until Resume. A tick that
// arrives while a cycle is in flight is dropped, never queued.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/naveye-assist/pkg/announce"
	"github.com/teslashibe/naveye-assist/pkg/camera"
	"github.com/teslashibe/naveye-assist/pkg/orientation"
	"github.com/teslashibe/naveye-assist/pkg/position"
	"github.com/teslashibe/naveye-assist/pkg/vision"
)

// ErrMissingDependency is returned by New when a required collaborator is nil.
var ErrMissingDependency = errors.New("capture: missing dependency")

// Camera is the mounted camera feed. *camera.Manager implements it.
type Camera interface {
	Mount() error
	Unmount() error
	Capture(ctx context.Context) (camera.Frame, error)
}

// OrientationReader reports the current device orientation.
type OrientationReader interface {
	Current() orientation.Orientation
}

// Announcer speaks cycle outcomes. *announce.Announcer implements it.
type Announcer interface {
	Announce(name string, label position.Label) announce.Event
	AnnounceNone() announce.Event
	AnnounceError() announce.Event
}

// Deps are the loop's collaborators. Gate and Orientation are optional.
type Deps struct {
	Camera      Camera
	Gate        camera.Gate
	Detector    vision.Detector
	Orientation OrientationReader
	Announcer   Announcer
}

// Stats counts loop activity since creation.
type Stats struct {
	Ticks   int `json:"ticks"`
	Dropped int `json:"dropped"`
	Cycles  int `json:"cycles"`
	Errors  int `json:"errors"`
}

// Loop is the capture state machine.
type Loop struct {
	config      Config
	camera      Camera
	gate        camera.Gate
	detector    vision.Detector
	orientation OrientationReader
	announcer   Announcer
	logger      *slog.Logger

	// ctl serializes Start, Stop, Pause and Resume.
	ctl sync.Mutex

	mu         sync.Mutex
	idle       *sync.Cond // signalled when inFlight or acquiring clears
	started    bool
	paused     bool
	inFlight   bool
	acquiring  bool // the in-flight cycle is still reading a frame
	baseCtx    context.Context
	stopTicker context.CancelFunc
	tickerDone chan struct{}
	last       *Cycle
	stats      Stats
}

// New creates a loop. Camera, Detector and Announcer are required.
func New(cfg Config, deps Deps) (*Loop, error) {
	cfg.applyDefaults()
	switch {
	case deps.Camera == nil:
		return nil, fmt.Errorf("%w: camera", ErrMissingDependency)
	case deps.Detector == nil:
		return nil, fmt.Errorf("%w: detector", ErrMissingDependency)
	case deps.Announcer == nil:
		return nil, fmt.Errorf("%w: announcer", ErrMissingDependency)
	}
	gate := deps.Gate
	if gate == nil {
		gate = camera.AllowGate{}
	}

	l := &Loop{
		config:      cfg,
		camera:      deps.Camera,
		gate:        gate,
		detector:    deps.Detector,
		orientation: deps.Orientation,
		announcer:   deps.Announcer,
		logger:      cfg.Logger.With("component", "capture"),
		baseCtx:     context.Background(),
	}
	l.idle = sync.NewCond(&l.mu)
	return l, nil
}

// Start requests camera permission, mounts the feed and starts the ticker.
// Calling Start on a started loop does nothing. When permission is denied
// the loop stays stopped and the error wraps camera.ErrPermissionDenied.
func (l *Loop) Start(ctx context.Context) error {
	l.ctl.Lock()
	defer l.ctl.Unlock()

	if l.Started() {
		return nil
	}

	perm, err := l.gate.Request(ctx)
	if perm != camera.Granted {
		if err == nil || !errors.Is(err, camera.ErrPermissionDenied) {
			err = errors.Join(camera.ErrPermissionDenied, err)
		}
		l.logger.Warn("camera permission denied", "error", err)
		return err
	}

	if err := l.camera.Mount(); err != nil {
		return err
	}

	l.mu.Lock()
	l.started = true
	l.paused = false
	l.baseCtx = ctx
	l.startTickerLocked()
	l.mu.Unlock()

	l.logger.Info("capture loop started", "interval", l.config.Interval)
	l.notify()
	return nil
}

// Stop cancels the ticker, waits for an in-flight cycle and unmounts the
// feed. Safe to call when the loop is not running.
func (l *Loop) Stop() {
	l.ctl.Lock()
	defer l.ctl.Unlock()

	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return
	}
	wasPaused := l.paused
	l.started = false
	l.paused = false
	cancel, done := l.takeTickerLocked()
	l.mu.Unlock()

	waitTicker(cancel, done)
	l.Wait()
	if !wasPaused {
		if err := l.camera.Unmount(); err != nil {
			l.logger.Warn("unmount failed", "error", err)
		}
	}

	l.logger.Info("capture loop stopped")
	l.notify()
}

// Pause cancels the ticker and unmounts the camera feed. A cycle already in
// flight runs to completion: the feed is unmounted only once it has its
// frame. Pausing a stopped or paused loop does nothing.
func (l *Loop) Pause() error {
	l.ctl.Lock()
	defer l.ctl.Unlock()

	l.mu.Lock()
	if !l.started || l.paused {
		l.mu.Unlock()
		return nil
	}
	l.paused = true
	cancel, done := l.takeTickerLocked()
	l.mu.Unlock()

	waitTicker(cancel, done)

	l.mu.Lock()
	for l.acquiring {
		l.idle.Wait()
	}
	l.mu.Unlock()

	err := l.camera.Unmount()
	if err != nil {
		l.logger.Warn("unmount failed", "error", err)
	}

	l.logger.Info("capture paused")
	l.notify()
	return err
}

// Resume remounts the feed and restarts the ticker from zero elapsed.
// Resuming a loop that is not paused does nothing.
func (l *Loop) Resume() error {
	l.ctl.Lock()
	defer l.ctl.Unlock()

	if !l.Paused() {
		return nil
	}

	if err := l.camera.Mount(); err != nil {
		return err
	}

	l.mu.Lock()
	l.paused = false
	l.startTickerLocked()
	l.mu.Unlock()

	l.logger.Info("capture resumed")
	l.notify()
	return nil
}

// Toggle pauses a running loop or resumes a paused one and returns the new state.
func (l *Loop) Toggle() (State, error) {
	var err error
	if l.Paused() {
		err = l.Resume()
	} else {
		err = l.Pause()
	}
	return l.State(), err
}

// Tick runs one timer-triggered cycle synchronously. It returns false when
// the tick was dropped because the loop is not started, is paused or already
// has a cycle in flight.
func (l *Loop) Tick(ctx context.Context) (Cycle, bool) {
	return l.run(ctx, TriggerTimer)
}

// CaptureNow runs one cycle on demand under the same in-flight guard as Tick.
func (l *Loop) CaptureNow(ctx context.Context) (Cycle, bool) {
	return l.run(ctx, TriggerButton)
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

// Started reports whether Start succeeded and Stop has not been called.
func (l *Loop) Started() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}

// Paused reports whether the loop is paused.
func (l *Loop) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// Last returns the most recent finished cycle, or nil.
func (l *Loop) Last() *Cycle {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return nil
	}
	c := *l.last
	return &c
}

// Stats returns activity counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Wait blocks until no cycle is in flight.
func (l *Loop) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.inFlight {
		l.idle.Wait()
	}
}

func (l *Loop) stateLocked() State {
	switch {
	case l.paused:
		return StatePaused
	case l.inFlight:
		return StateCapturing
	default:
		return StateIdle
	}
}

// begin claims the in-flight slot. It fails when the loop is stopped or
// paused, or a cycle is running.
func (l *Loop) begin(trigger Trigger) bool {
	l.mu.Lock()
	if trigger == TriggerTimer {
		l.stats.Ticks++
	}
	if !l.started || l.paused || l.inFlight {
		l.stats.Dropped++
		state := l.stateLocked()
		l.mu.Unlock()
		l.logger.Debug("trigger dropped", "trigger", trigger, "state", state)
		return false
	}
	l.inFlight = true
	l.acquiring = true
	l.mu.Unlock()

	l.notify()
	return true
}

// acquired marks the end of the cycle's frame read.
func (l *Loop) acquired() {
	l.mu.Lock()
	l.acquiring = false
	l.idle.Broadcast()
	l.mu.Unlock()
}

func (l *Loop) end(c Cycle) {
	l.mu.Lock()
	l.inFlight = false
	l.acquiring = false
	l.last = &c
	l.stats.Cycles++
	if c.Err != "" {
		l.stats.Errors++
	}
	l.idle.Broadcast()
	l.mu.Unlock()

	if l.config.OnCycle != nil {
		l.config.OnCycle(c)
	}
	l.notify()
}

func (l *Loop) run(ctx context.Context, trigger Trigger) (Cycle, bool) {
	if !l.begin(trigger) {
		return Cycle{}, false
	}
	c := l.runCycle(ctx, trigger)
	l.end(c)
	return c, true
}

// startTickerLocked starts a fresh ticker. Caller holds l.mu.
func (l *Loop) startTickerLocked() {
	ctx, cancel := context.WithCancel(l.baseCtx)
	ch, stop := l.config.NewTicker(l.config.Interval)
	done := make(chan struct{})

	l.stopTicker = cancel
	l.tickerDone = done
	go l.runTicker(ctx, ch, stop, done)
}

func (l *Loop) takeTickerLocked() (context.CancelFunc, chan struct{}) {
	cancel, done := l.stopTicker, l.tickerDone
	l.stopTicker, l.tickerDone = nil, nil
	return cancel, done
}

func waitTicker(cancel context.CancelFunc, done chan struct{}) {
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// runTicker dispatches each tick to its own goroutine so the guard, not the
// ticker buffer, decides whether it runs.
func (l *Loop) runTicker(ctx context.Context, ch <-chan time.Time, stop func(), done chan struct{}) {
	defer close(done)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			if !l.begin(TriggerTimer) {
				continue
			}
			go func() {
				l.end(l.runCycle(l.cycleContext(), TriggerTimer))
			}()
		}
	}
}

// cycleContext is the context timer cycles run under. Pause cancels only the
// ticker, so an in-flight cycle completes.
func (l *Loop) cycleContext() context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.baseCtx
}

func (l *Loop) notify() {
	if l.config.OnState != nil {
		l.config.OnState(l.State())
	}
}
