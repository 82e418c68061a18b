package camera

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// CommandSource runs a shell command per capture and reads a JPEG from its
// stdout (libcamera-jpeg, fswebcam, gst-launch with a filesink to stdout).
type CommandSource struct {
	cfg Config

	mu     sync.Mutex
	closed bool
}

// NewCommandSource creates a source for cfg.Command.
func NewCommandSource(cfg Config) (*CommandSource, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, fmt.Errorf("camera: empty capture command")
	}
	return &CommandSource{cfg: cfg}, nil
}

// Capture runs the command and reduces its output.
func (c *CommandSource) Capture(ctx context.Context) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Frame{}, ErrClosed
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", c.cfg.Command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return Frame{}, fmt.Errorf("capture command: %w: %s", err, msg)
		}
		return Frame{}, fmt.Errorf("capture command: %w", err)
	}

	return Reduce(stdout.Bytes(), c.cfg.MaxWidth, c.cfg.Quality)
}

// Close marks the source closed. No process outlives a capture.
func (c *CommandSource) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

var _ Source = (*CommandSource)(nil)
