package tts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	providerEspeak = "espeak"

	// DefaultEspeakBinary is looked up on PATH.
	DefaultEspeakBinary = "espeak-ng"
)

// Espeak implements Provider with a local espeak-ng process. It needs no
// network and is used as the last link of a chain.
type Espeak struct {
	config *Config
	logger *slog.Logger
}

// NewEspeak creates a local speech provider. The voice is an espeak-ng voice
// name ("en-us"); Rate is words per minute.
func NewEspeak(opts ...Option) (*Espeak, error) {
	cfg := DefaultConfig()
	cfg.Binary = DefaultEspeakBinary
	cfg.VoiceID = "en-us"
	cfg.Rate = 160
	cfg.OutputFormat = EncodingWAV
	cfg.Apply(opts...)

	if cfg.Binary == "" {
		return nil, WrapError(providerEspeak, fmt.Errorf("binary required"))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Espeak{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.espeak"),
	}, nil
}

// Args returns the command line used for text, without the binary.
func (e *Espeak) Args(text string) []string {
	args := []string{"--stdout"}
	if e.config.VoiceID != "" {
		args = append(args, "-v", e.config.VoiceID)
	}
	if e.config.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(e.config.Rate))
	}
	return append(args, "--", text)
}

// Synthesize runs espeak-ng and returns its WAV output.
func (e *Espeak) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerEspeak, ErrEmptyText)
	}
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}
	start := time.Now()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.Binary, e.Args(text)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, WrapError(providerEspeak, err)
	}
	if stdout.Len() == 0 {
		return nil, WrapError(providerEspeak, fmt.Errorf("no audio produced"))
	}
	latency := time.Since(start).Milliseconds()

	e.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", stdout.Len(),
		"latency_ms", latency,
	)

	return &AudioResult{
		Audio:     stdout.Bytes(),
		Format:    AudioFormat{Encoding: EncodingWAV, SampleRate: 22050, Channels: 1, BitDepth: 16},
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health checks that the binary is installed.
func (e *Espeak) Health(ctx context.Context) error {
	if _, err := exec.LookPath(e.config.Binary); err != nil {
		return WrapError(providerEspeak, err)
	}
	return nil
}

// Close is a no-op.
func (e *Espeak) Close() error {
	return nil
}

var _ Provider = (*Espeak)(nil)
