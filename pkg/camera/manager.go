package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Manager owns the camera handle. Mount opens the source (and starts the live
// preview if one is configured); Unmount tears both down. Captures are only
// possible while mounted.
type Manager struct {
	open   Opener
	logger *slog.Logger

	mu            sync.RWMutex
	config        Config
	source        Source
	previewCancel context.CancelFunc
	previewDone   chan struct{}
	onPreview     func(Frame)
}

// NewManager creates an unmounted manager.
func NewManager(cfg Config, open Opener, logger *slog.Logger) *Manager {
	if open == nil {
		open = Open
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		open:   open,
		config: cfg,
		logger: logger.With("component", "camera"),
	}
}

// SetPreview registers the live preview callback. It takes effect on the next Mount.
func (m *Manager) SetPreview(fn func(Frame)) {
	m.mu.Lock()
	m.onPreview = fn
	m.mu.Unlock()
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and stores cfg. A mounted feed is remounted with it.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}

	m.mu.Lock()
	m.config = cfg
	mounted := m.source != nil
	m.mu.Unlock()

	if !mounted {
		return nil
	}
	if err := m.Unmount(); err != nil {
		m.logger.Warn("unmount before reconfigure failed", "error", err)
	}
	return m.Mount()
}

// Mount opens the camera. No-op when already mounted.
func (m *Manager) Mount() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.source != nil {
		return nil
	}

	src, err := m.open(m.config)
	if err != nil {
		return fmt.Errorf("mount camera: %w", err)
	}
	m.source = src
	m.logger.Info("camera mounted", "source", m.config.Source)

	if m.onPreview != nil && m.config.PreviewFPS > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		m.previewCancel = cancel
		m.previewDone = make(chan struct{})
		go m.runPreview(ctx, src, time.Second/time.Duration(m.config.PreviewFPS), m.onPreview, m.previewDone)
	}
	return nil
}

// Unmount stops the preview and closes the camera. No-op when not mounted.
func (m *Manager) Unmount() error {
	m.mu.Lock()
	src := m.source
	cancel, done := m.previewCancel, m.previewDone
	m.source, m.previewCancel, m.previewDone = nil, nil, nil
	m.mu.Unlock()

	if src == nil {
		return nil
	}
	if cancel != nil {
		cancel()
		<-done
	}

	m.logger.Info("camera unmounted")
	return src.Close()
}

// Mounted reports whether the feed is up.
func (m *Manager) Mounted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.source != nil
}

// Capture grabs a frame from the mounted source.
func (m *Manager) Capture(ctx context.Context) (Frame, error) {
	m.mu.RLock()
	src := m.source
	m.mu.RUnlock()

	if src == nil {
		return Frame{}, ErrNotMounted
	}

	frame, err := src.Capture(ctx)
	if err != nil {
		return Frame{}, err
	}
	if frame.Empty() {
		return Frame{}, ErrEmptyFrame
	}
	return frame, nil
}

func (m *Manager) runPreview(ctx context.Context, src Source, every time.Duration, fn func(Frame), done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := src.Capture(ctx)
			if err != nil {
				if ctx.Err() == nil {
					m.logger.Debug("preview capture failed", "error", err)
				}
				continue
			}
			fn(frame)
		}
	}
}
