// Package orientation tracks whether the device is held in portrait or landscape.
//
// A Sensor reports raw readings (four device rotations plus unknown). The Tracker
// subscribes to the sensor, collapses each reading to Portrait or Landscape and keeps
// the last observed value for readers such as the position classifier.
package orientation

import (
	"fmt"
	"strings"
)

// Orientation is the coarse device orientation.
type Orientation int

const (
	// Portrait is the default before any reading arrives.
	Portrait Orientation = iota
	Landscape
)

// String returns "portrait" or "landscape".
func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Raw is an uncollapsed sensor reading.
type Raw string

// Raw readings.
const (
	RawUnknown        Raw = "unknown"
	RawPortraitUp     Raw = "portrait_up"
	RawPortraitDown   Raw = "portrait_down"
	RawLandscapeLeft  Raw = "landscape_left"
	RawLandscapeRight Raw = "landscape_right"
)

// Collapse maps a raw reading to Portrait or Landscape.
// Both landscape rotations become Landscape; everything else is Portrait.
func Collapse(r Raw) Orientation {
	switch r {
	case RawLandscapeLeft, RawLandscapeRight:
		return Landscape
	default:
		return Portrait
	}
}

// ParseRaw accepts our own raw names as well as the values browsers report
// through screen.orientation.type ("portrait-primary", "landscape-secondary", ...).
func ParseRaw(s string) (Raw, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "portrait_up", "portrait-primary", "portrait":
		return RawPortraitUp, nil
	case "portrait_down", "portrait-secondary":
		return RawPortraitDown, nil
	case "landscape_left", "landscape-primary", "landscape":
		return RawLandscapeLeft, nil
	case "landscape_right", "landscape-secondary":
		return RawLandscapeRight, nil
	case "unknown", "":
		return RawUnknown, nil
	default:
		return RawUnknown, fmt.Errorf("orientation: unknown reading %q", s)
	}
}
