// Package audio plays synthesized speech on the local output device.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/naveye-assist/pkg/tts"
)

// DefaultBinary is the player used when none is configured. ffplay reads
// MP3, WAV and raw PCM from stdin.
const DefaultBinary = "ffplay"

// waitDelay bounds how long a killed player may hold its pipes open.
const waitDelay = time.Second

// Player pipes audio buffers into a local playback process. Each Play call
// starts its own process, so overlapping utterances play concurrently.
type Player struct {
	binary string
	logger *slog.Logger

	// Callbacks
	OnPlaybackStart func()
	OnPlaybackEnd   func()

	active atomic.Int32

	mu      sync.Mutex
	cancels map[int]context.CancelFunc
	nextID  int
}

// NewPlayer creates a player that runs binary (ffplay-compatible flags).
func NewPlayer(binary string, logger *slog.Logger) *Player {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		binary:  binary,
		logger:  logger.With("component", "audio"),
		cancels: make(map[int]context.CancelFunc),
	}
}

// Args returns the playback arguments for the given format.
func Args(format tts.AudioFormat) []string {
	args := []string{"-nodisp", "-autoexit", "-loglevel", "error"}
	if format.Encoding.IsPCM() {
		rate := format.SampleRate
		if rate == 0 {
			rate = tts.SampleRateFromEncoding(format.Encoding)
		}
		channels := format.Channels
		if channels == 0 {
			channels = 1
		}
		args = append(args, "-f", "s16le", "-ar", strconv.Itoa(rate), "-ch_layout", layout(channels))
	}
	return append(args, "-i", "pipe:0")
}

func layout(channels int) string {
	if channels == 2 {
		return "stereo"
	}
	return "mono"
}

// Play writes audio to a new playback process and waits for it to finish.
func (p *Player) Play(ctx context.Context, audio []byte, format tts.AudioFormat) error {
	if len(audio) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	id := p.track(cancel)
	defer p.untrack(id)

	cmd := exec.CommandContext(ctx, p.binary, Args(format)...)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.binary, err)
	}

	if p.active.Add(1) == 1 && p.OnPlaybackStart != nil {
		p.OnPlaybackStart()
	}
	defer func() {
		if p.active.Add(-1) == 0 && p.OnPlaybackEnd != nil {
			p.OnPlaybackEnd()
		}
	}()

	_, writeErr := io.Copy(stdin, bytes.NewReader(audio))
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("playback: %w: %s", err, msg)
		}
		return fmt.Errorf("playback: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("write audio: %w", writeErr)
	}

	p.logger.Debug("played audio", "bytes", len(audio), "encoding", format.Encoding)
	return nil
}

// Cancel stops every running playback.
func (p *Player) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, cancel := range p.cancels {
		cancel()
		delete(p.cancels, id)
	}
}

// IsPlaying returns true while any playback process runs.
func (p *Player) IsPlaying() bool {
	return p.active.Load() > 0
}

func (p *Player) track(cancel context.CancelFunc) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.cancels[p.nextID] = cancel
	return p.nextID
}

func (p *Player) untrack(id int) {
	p.mu.Lock()
	cancel, ok := p.cancels[id]
	delete(p.cancels, id)
	p.mu.Unlock()
	if ok {
		cancel()
	}
}
