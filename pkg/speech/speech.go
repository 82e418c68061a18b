// Package speech speaks short utterances on the device.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/naveye-assist/pkg/audio"
	"github.com/teslashibe/naveye-assist/pkg/tts"
)

// Speaker says a line of text. Speak blocks until playback ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Synthesizer speaks through a TTS provider and a local player.
type Synthesizer struct {
	provider tts.Provider
	player   *audio.Player
	logger   *slog.Logger
}

// NewSynthesizer creates a speaker from a provider (often a tts.Chain) and a player.
func NewSynthesizer(provider tts.Provider, player *audio.Player, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		provider: provider,
		player:   player,
		logger:   logger.With("component", "speech"),
	}
}

// Speak synthesizes text and plays it.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	result, err := s.provider.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	if err := s.player.Play(ctx, result.Audio, result.Format); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	s.logger.Debug("spoke", "text", text, "latency_ms", result.LatencyMs)
	return nil
}

// Close releases the provider.
func (s *Synthesizer) Close() error {
	s.player.Cancel()
	return s.provider.Close()
}

// LogSpeaker only logs utterances. Used when no audio output is configured.
type LogSpeaker struct {
	Logger *slog.Logger
}

// Speak logs text at info level.
func (l LogSpeaker) Speak(_ context.Context, text string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("speak", "text", text)
	return nil
}

// Recorder records utterances for tests and previews.
type Recorder struct {
	// Err is returned from every Speak call when set.
	Err error

	mu    sync.Mutex
	lines []string
	ch    chan string
}

// NewRecorder creates a recorder that also publishes each line on Lines().
func NewRecorder() *Recorder {
	return &Recorder{ch: make(chan string, 64)}
}

// Speak records text.
func (r *Recorder) Speak(_ context.Context, text string) error {
	r.mu.Lock()
	r.lines = append(r.lines, text)
	ch, err := r.ch, r.Err
	r.mu.Unlock()

	if ch != nil {
		select {
		case ch <- text:
		default:
		}
	}
	return err
}

// Spoken returns a copy of every recorded line, in arrival order.
func (r *Recorder) Spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Lines returns the channel each recorded line is published on.
func (r *Recorder) Lines() <-chan string {
	return r.ch
}

var (
	_ Speaker = (*Synthesizer)(nil)
	_ Speaker = LogSpeaker{}
	_ Speaker = (*Recorder)(nil)
)
