package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/teslashibe/naveye-assist/internal/log"
	"github.com/teslashibe/naveye-assist/pkg/announce"
	"github.com/teslashibe/naveye-assist/pkg/audio"
	"github.com/teslashibe/naveye-assist/pkg/camera"
	"github.com/teslashibe/naveye-assist/pkg/capture"
	"github.com/teslashibe/naveye-assist/pkg/contact"
	"github.com/teslashibe/naveye-assist/pkg/orientation"
	"github.com/teslashibe/naveye-assist/pkg/speech"
	"github.com/teslashibe/naveye-assist/pkg/tts"
	"github.com/teslashibe/naveye-assist/pkg/vision"
	"github.com/teslashibe/naveye-assist/pkg/web"
)

// PermissionDeniedCaption is shown when the camera cannot be used.
const PermissionDeniedCaption = "Camera permission denied"

// App is the NavEye Assist application.
type App struct {
	config Config
	logger *slog.Logger

	camera    *camera.Manager
	gate      camera.Gate
	detector  vision.Detector
	speaker   speech.Speaker
	announcer *announce.Announcer
	sensor    *orientation.Broadcaster
	tracker   *orientation.Tracker
	store     *contact.JSONStore
	form      *contact.Form
	loop      *capture.Loop
	web       *web.Server

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
	closed   bool
}

// New creates an application from cfg. It validates but does not connect anything.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	return &App{
		config: cfg,
		logger: log.Component("app"),
	}, nil
}

// Init builds every component and wires them together.
func (a *App) Init(ctx context.Context) error {
	cfg := a.config

	a.web = web.NewServer(web.Config{
		Port:      cfg.Port,
		AccessLog: cfg.AccessLog,
		Logger:    log.L(),
	})

	a.camera = camera.NewManager(cfg.Camera, func(c camera.Config) (camera.Source, error) {
		return camera.OpenWithLogger(c, log.L())
	}, log.L())
	a.camera.SetPreview(func(f camera.Frame) {
		a.web.SendCameraFrame(f.JPEG)
	})
	a.gate = camera.GateFor(cfg.Camera)

	detector, err := a.newDetector(ctx)
	if err != nil {
		return fmt.Errorf("vision: %w", err)
	}
	a.detector = detector

	speaker, err := a.newSpeaker()
	if err != nil {
		return fmt.Errorf("speech: %w", err)
	}
	a.speaker = speaker
	a.announcer = announce.New(a.speaker, a.web, log.L())

	raw, _ := orientation.ParseRaw(cfg.Orientation)
	a.sensor = orientation.NewBroadcaster(raw)
	a.tracker = orientation.NewTracker(a.sensor, log.L())

	a.store, err = contact.NewJSONStore(cfg.InquiriesPath)
	if err != nil {
		return fmt.Errorf("contact outbox: %w", err)
	}
	a.form = contact.NewForm(a.store)

	loopCfg := capture.DefaultConfig()
	loopCfg.Interval = cfg.Interval
	loopCfg.CycleTimeout = cfg.CycleTimeout
	loopCfg.Logger = log.L()
	loopCfg.OnState = func(capture.State) { a.web.Publish() }
	loopCfg.OnCycle = func(c capture.Cycle) {
		a.logger.Debug("cycle finished", "id", c.ID, "trigger", c.Trigger, "duration", c.Duration)
	}

	a.loop, err = capture.New(loopCfg, capture.Deps{
		Camera:      a.camera,
		Gate:        a.gate,
		Detector:    a.detector,
		Orientation: a.tracker,
		Announcer:   a.announcer,
	})
	if err != nil {
		return err
	}

	a.web.Bind(web.Bindings{
		Loop:        a.loop,
		Orientation: a.sensor,
		Tracker:     a.tracker,
		Form:        a.form,
		Mounted:     a.camera.Mounted,
	})

	a.logger.Info("initialized",
		"camera", cfg.Camera.Source,
		"interval", cfg.Interval,
		"speech", cfg.TTSMode,
	)
	return nil
}

func (a *App) newDetector(ctx context.Context) (vision.Detector, error) {
	cfg := a.config
	opts := []vision.Option{vision.WithLogger(log.L())}
	if cfg.VisionAPIKey != "" {
		opts = append(opts, vision.WithAPIKey(cfg.VisionAPIKey))
	} else {
		a.logger.Info("no vision API key, using application default credentials")
	}
	if cfg.VisionEndpoint != "" {
		opts = append(opts, vision.WithEndpoint(cfg.VisionEndpoint))
	}
	if cfg.VisionTimeout > 0 {
		opts = append(opts, vision.WithTimeout(cfg.VisionTimeout))
	}
	if cfg.VisionRetries > 0 {
		opts = append(opts, vision.WithRetry(cfg.VisionRetries, 0))
	}
	return vision.NewCloudClient(ctx, opts...)
}

// newSpeaker builds the speech output for the configured mode. In auto mode
// every cloud voice with a key is tried before the local espeak-ng voice.
func (a *App) newSpeaker() (speech.Speaker, error) {
	cfg := a.config
	if cfg.TTSMode == TTSLog {
		return speech.LogSpeaker{Logger: log.Component("speech")}, nil
	}

	var providers []tts.Provider
	common := []tts.Option{tts.WithLogger(log.L())}

	if cfg.TTSMode == TTSAuto || cfg.TTSMode == TTSElevenLabs {
		if cfg.ElevenLabsKey != "" {
			opts := append(common, tts.WithAPIKey(cfg.ElevenLabsKey))
			if cfg.TTSVoice != "" {
				opts = append(opts, tts.WithVoice(cfg.TTSVoice))
			}
			p, err := tts.NewElevenLabs(opts...)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		}
	}
	if cfg.TTSMode == TTSAuto || cfg.TTSMode == TTSOpenAI {
		if cfg.OpenAIKey != "" {
			p, err := tts.NewOpenAI(append(common, tts.WithAPIKey(cfg.OpenAIKey))...)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		}
	}
	if cfg.TTSMode == TTSAuto || cfg.TTSMode == TTSEspeak {
		p, err := tts.NewEspeak(common...)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	chain, err := tts.NewChain(providers, tts.WithChainLogger(log.L()))
	if err != nil {
		return nil, err
	}
	return speech.NewSynthesizer(chain, audio.NewPlayer(cfg.Player, log.L()), log.L()), nil
}

// Run serves the surface and starts the capture loop, then blocks until ctx
// is done or the server fails. A denied camera leaves the surface running.
func (a *App) Run(ctx context.Context) error {
	if a.loop == nil {
		return errors.New("app: Init has not been called")
	}

	ln, err := net.Listen("tcp", ":"+a.config.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	a.mu.Lock()
	a.listener = ln
	a.serveErr = make(chan error, 1)
	a.mu.Unlock()

	go func() {
		a.serveErr <- a.web.Serve(ln)
	}()
	a.logger.Info("web surface listening", "url", "http://"+ln.Addr().String())

	if err := a.tracker.Start(ctx); err != nil {
		a.logger.Warn("orientation unavailable", "error", err)
	}

	if err := a.loop.Start(ctx); err != nil {
		if !errors.Is(err, camera.ErrPermissionDenied) {
			return fmt.Errorf("capture: %w", err)
		}
		a.announcer.SetCaption(PermissionDeniedCaption)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-a.serveErr:
		return err
	}
}

// Addr returns the surface's listen address once Run has started.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Loop returns the capture loop, or nil before Init.
func (a *App) Loop() *capture.Loop {
	return a.loop
}

// Announcer returns the announcer, or nil before Init.
func (a *App) Announcer() *announce.Announcer {
	return a.announcer
}

// Shutdown stops the loop, waits for pending speech and closes the surface.
// It is safe to call more than once.
func (a *App) Shutdown() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.logger.Info("shutting down")

	if a.loop != nil {
		a.loop.Stop()
	}
	if a.tracker != nil {
		a.tracker.Stop()
	}
	if a.announcer != nil {
		a.announcer.Close()
	}
	if s, ok := a.speaker.(*speech.Synthesizer); ok {
		if err := s.Close(); err != nil {
			a.logger.Warn("speech close", "error", err)
		}
	}
	if a.web != nil {
		if err := a.web.Shutdown(); err != nil {
			a.logger.Warn("web shutdown", "error", err)
		}
	}
}
