package camera

import (
	"fmt"
	"log/slog"
)

// Opener creates a Source for a config. The Manager calls it on every mount.
type Opener func(cfg Config) (Source, error)

// Open is the default Opener. It selects the source from cfg.Source.
func Open(cfg Config) (Source, error) {
	return OpenWithLogger(cfg, slog.Default())
}

// OpenWithLogger is Open with an explicit logger for device sources.
func OpenWithLogger(cfg Config, logger *slog.Logger) (Source, error) {
	switch cfg.Source {
	case SourceDevice:
		return NewDeviceSource(cfg, logger)
	case SourceCommand:
		return NewCommandSource(cfg)
	case SourceFile:
		return NewFileSource(cfg)
	default:
		return nil, fmt.Errorf("camera: unknown source %q", cfg.Source)
	}
}
