// Package app wires the NavEye Assist components together and owns their lifecycle.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teslashibe/naveye-assist/internal/config"
	"github.com/teslashibe/naveye-assist/pkg/audio"
	"github.com/teslashibe/naveye-assist/pkg/camera"
	"github.com/teslashibe/naveye-assist/pkg/capture"
	"github.com/teslashibe/naveye-assist/pkg/orientation"
)

// Speech modes.
const (
	TTSAuto       = "auto"       // every configured cloud voice, then espeak-ng
	TTSOpenAI     = "openai"     // OpenAI speech only
	TTSElevenLabs = "elevenlabs" // ElevenLabs only
	TTSEspeak     = "espeak"     // local espeak-ng only
	TTSLog        = "log"        // no audio, utterances are logged
)

// DefaultPort is the web surface port.
const DefaultPort = "8080"

// Config holds all configuration for the application.
// Flag parsing is done in cmd/naveye/main.go; this struct is data only.
type Config struct {
	// Debug enables debug logging; LogLevel is used otherwise.
	Debug    bool
	LogLevel string

	// Web surface
	Port      string
	AccessLog bool

	// Camera
	Camera       camera.Config
	CameraPreset string

	// Capture loop
	Interval     time.Duration
	CycleTimeout time.Duration

	// Detection service. Without an API key, Application Default Credentials are used.
	VisionAPIKey   string
	VisionEndpoint string
	VisionTimeout  time.Duration
	VisionRetries  int

	// Speech
	TTSMode  string
	TTSVoice string
	Player   string

	// Initial orientation reading until the surface reports one.
	Orientation string

	// Contact form outbox
	InquiriesPath string

	// API keys (typically from environment variables).
	OpenAIKey     string
	ElevenLabsKey string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		Port:          DefaultPort,
		Camera:        camera.DefaultConfig(),
		Interval:      capture.DefaultInterval,
		TTSMode:       TTSAuto,
		Player:        audio.DefaultBinary,
		Orientation:   string(orientation.RawPortraitUp),
		InquiriesPath: config.Path("inquiries.json"),
	}
}

// FileConfig is the layout of ~/.naveye/config.json.
type FileConfig struct {
	Port         string         `json:"port,omitempty"`
	Camera       *camera.Config `json:"camera,omitempty"`
	CameraPreset string         `json:"camera_preset,omitempty"`
	TTS          struct {
		Mode   string `json:"mode,omitempty"`
		Voice  string `json:"voice,omitempty"`
		Player string `json:"player,omitempty"`
	} `json:"tts"`
}

// ConfigPath returns the path of the optional configuration file.
func ConfigPath() string {
	return config.Path("config.json")
}

// LoadFile merges settings from a JSON file. A missing file is not an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.Camera != nil {
		c.Camera = *fc.Camera
	}
	if fc.CameraPreset != "" {
		c.CameraPreset = fc.CameraPreset
	}
	if fc.TTS.Mode != "" {
		c.TTSMode = fc.TTS.Mode
	}
	if fc.TTS.Voice != "" {
		c.TTSVoice = fc.TTS.Voice
	}
	if fc.TTS.Player != "" {
		c.Player = fc.TTS.Player
	}
	return nil
}

// LoadEnvConfig loads configuration values from environment variables.
func (c *Config) LoadEnvConfig() {
	c.VisionAPIKey = config.Env("GOOGLE_VISION_API_KEY", c.VisionAPIKey)
	c.OpenAIKey = config.Env("OPENAI_API_KEY", c.OpenAIKey)
	c.ElevenLabsKey = config.Env("ELEVENLABS_API_KEY", c.ElevenLabsKey)
	c.TTSVoice = config.Env("ELEVENLABS_VOICE_ID", c.TTSVoice)
	c.Port = config.Env("NAVEYE_PORT", c.Port)
	c.LogLevel = config.Env("LOG_LEVEL", c.LogLevel)

	if cam := os.Getenv("NAVEYE_CAMERA"); cam != "" {
		applyCameraSource(&c.Camera, cam)
	}
}

// applyCameraSource reads NAVEYE_CAMERA: a device index or /dev path, a
// "file:" path, or a "cmd:" shell command.
func applyCameraSource(cfg *camera.Config, source string) {
	switch {
	case strings.HasPrefix(source, "file:"):
		cfg.Source = camera.SourceFile
		cfg.Path = strings.TrimPrefix(source, "file:")
	case strings.HasPrefix(source, "cmd:"):
		cfg.Source = camera.SourceCommand
		cfg.Command = strings.TrimPrefix(source, "cmd:")
	default:
		cfg.Source = camera.SourceDevice
		cfg.Device = source
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.CameraPreset != "" {
		if !camera.ApplyPreset(&c.Camera, c.CameraPreset) {
			return &ConfigError{Field: "CameraPreset", Message: fmt.Sprintf("unknown camera preset %q (valid: %s)",
				c.CameraPreset, strings.Join(camera.PresetNames(), ", "))}
		}
	}
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Camera", Message: "invalid camera config: " + strings.Join(errs, "; ")}
	}
	if c.Interval <= 0 {
		return &ConfigError{Field: "Interval", Message: "capture interval must be positive"}
	}
	if c.CycleTimeout < 0 || c.VisionTimeout < 0 || c.VisionRetries < 0 {
		return &ConfigError{Field: "Vision", Message: "timeouts and retries must not be negative"}
	}
	if _, err := orientation.ParseRaw(c.Orientation); err != nil {
		return &ConfigError{Field: "Orientation", Message: err.Error()}
	}

	switch c.TTSMode {
	case TTSAuto, TTSEspeak, TTSLog:
	case TTSOpenAI:
		if c.OpenAIKey == "" {
			return &ConfigError{Field: "OpenAIKey", Message: "OPENAI_API_KEY environment variable is required for OpenAI speech"}
		}
	case TTSElevenLabs:
		if c.ElevenLabsKey == "" {
			return &ConfigError{Field: "ElevenLabsKey", Message: "ELEVENLABS_API_KEY environment variable is required for ElevenLabs speech"}
		}
	default:
		return &ConfigError{Field: "TTSMode", Message: fmt.Sprintf("unknown speech mode %q", c.TTSMode)}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
