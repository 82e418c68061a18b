package camera

import (
	"context"
	"fmt"
	"os"
	"runtime"
)

// Permission is the outcome of a camera access request.
type Permission int

const (
	Denied Permission = iota
	Granted
)

func (p Permission) String() string {
	if p == Granted {
		return "granted"
	}
	return "denied"
}

// Gate decides whether the camera may be used before the capture loop starts.
type Gate interface {
	Request(ctx context.Context) (Permission, error)
}

// DeviceGate grants access when the device node exists and can be opened for reading.
type DeviceGate struct {
	Path string
}

// Request probes the device node. On platforms without /dev nodes the OS
// prompts on first use, so access is granted here.
func (g DeviceGate) Request(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return Denied, err
	}
	if runtime.GOOS != "linux" {
		return Granted, nil
	}

	f, err := os.Open(g.Path)
	if err != nil {
		return Denied, fmt.Errorf("%w: %s: %v", ErrPermissionDenied, g.Path, err)
	}
	f.Close()
	return Granted, nil
}

// AllowGate always grants access. Used for command and file sources.
type AllowGate struct{}

// Request always returns Granted.
func (AllowGate) Request(context.Context) (Permission, error) {
	return Granted, nil
}

// GateFor returns the gate matching cfg.Source.
func GateFor(cfg Config) Gate {
	if cfg.Source == SourceDevice {
		return DeviceGate{Path: cfg.DevicePath()}
	}
	return AllowGate{}
}
