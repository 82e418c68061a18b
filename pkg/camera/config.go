package camera

import (
	"fmt"
	"strconv"
	"strings"
)

// Source kinds.
const (
	SourceDevice  = "device"  // V4L2 / AVFoundation device through OpenCV
	SourceCommand = "command" // shell command writing a JPEG to stdout
	SourceFile    = "file"    // JPEG file, or a directory of images cycled in order
)

// Config holds camera settings.
type Config struct {
	Source  string `json:"source"`
	Device  string `json:"device"`  // index ("0") or path ("/dev/video0")
	Command string `json:"command"` // used when Source is "command"
	Path    string `json:"path"`    // used when Source is "file"

	// Requested capture resolution (device sources only).
	Width  int `json:"width"`
	Height int `json:"height"`

	// MaxWidth downscales frames wider than this before encoding. 0 keeps the size.
	MaxWidth int `json:"max_width"`

	// Quality is the JPEG quality 1-100. 50 mirrors a "half quality" capture.
	Quality int `json:"quality"`

	// PreviewFPS is the live preview rate while the feed is mounted. 0 disables it.
	PreviewFPS int `json:"preview_fps"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Source:     SourceDevice,
		Device:     "0",
		Command:    "libcamera-jpeg -o - --width 640 --height 480 -t 1 --nopreview",
		Width:      640,
		Height:     480,
		MaxWidth:   640,
		Quality:    50,
		PreviewFPS: 2,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errs []string

	switch c.Source {
	case SourceDevice:
		if strings.TrimSpace(c.Device) == "" {
			errs = append(errs, "device is required for the device source")
		}
	case SourceCommand:
		if strings.TrimSpace(c.Command) == "" {
			errs = append(errs, "command is required for the command source")
		}
	case SourceFile:
		if strings.TrimSpace(c.Path) == "" {
			errs = append(errs, "path is required for the file source")
		}
	default:
		errs = append(errs, fmt.Sprintf("source must be %s, %s or %s", SourceDevice, SourceCommand, SourceFile))
	}

	if c.Width < 0 || c.Width > 4096 {
		errs = append(errs, "width must be between 0 and 4096")
	}
	if c.Height < 0 || c.Height > 4096 {
		errs = append(errs, "height must be between 0 and 4096")
	}
	if c.MaxWidth < 0 {
		errs = append(errs, "max_width must not be negative")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, "quality must be between 1 and 100")
	}
	if c.PreviewFPS < 0 || c.PreviewFPS > 30 {
		errs = append(errs, "preview_fps must be between 0 and 30")
	}

	return errs
}

// DeviceID returns the device as OpenCV expects it: an int index when the
// device is numeric, otherwise the path string.
func (c *Config) DeviceID() interface{} {
	if n, err := strconv.Atoi(c.Device); err == nil {
		return n
	}
	return c.Device
}

// DevicePath returns the filesystem node for the device ("0" -> "/dev/video0").
func (c *Config) DevicePath() string {
	if n, err := strconv.Atoi(c.Device); err == nil {
		return fmt.Sprintf("/dev/video%d", n)
	}
	return c.Device
}
