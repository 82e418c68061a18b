// Package camera captures still frames for the capture loop and owns the
// live camera handle that is mounted and unmounted across pause and resume.
//
// Frames are always JPEG. Sources downscale and re-encode at reduced quality so
// the upload to the detection service stays small.
package camera

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors.
var (
	// ErrNotMounted is returned by Manager.Capture while the feed is torn down.
	ErrNotMounted = errors.New("camera: feed not mounted")

	// ErrEmptyFrame is returned when a source produced no image data.
	ErrEmptyFrame = errors.New("camera: empty frame")

	// ErrPermissionDenied is returned when the camera cannot be accessed.
	ErrPermissionDenied = errors.New("camera: permission denied")

	// ErrClosed is returned when capturing from a closed source.
	ErrClosed = errors.New("camera: source closed")
)

// Frame is one captured image.
type Frame struct {
	JPEG       []byte
	Width      int
	Height     int
	CapturedAt time.Time
}

// Empty reports whether the frame carries no image data.
func (f Frame) Empty() bool {
	return len(f.JPEG) == 0
}

// Source produces frames.
type Source interface {
	// Capture grabs the current frame at the configured reduced quality.
	Capture(ctx context.Context) (Frame, error)

	// Close releases the underlying device or process.
	Close() error
}
