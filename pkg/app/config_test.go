package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/naveye-assist/pkg/camera"
	"github.com/teslashibe/naveye-assist/pkg/capture"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, capture.DefaultInterval, cfg.Interval)
	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.Equal(t, TTSAuto, cfg.TTSMode)
	assert.Zero(t, cfg.VisionRetries)
	assert.Zero(t, cfg.CycleTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("GOOGLE_VISION_API_KEY", "vision-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("ELEVENLABS_API_KEY", "eleven-key")
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-1")
	t.Setenv("NAVEYE_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NAVEYE_CAMERA", "/dev/video2")

	cfg := DefaultConfig()
	cfg.LoadEnvConfig()

	assert.Equal(t, "vision-key", cfg.VisionAPIKey)
	assert.Equal(t, "openai-key", cfg.OpenAIKey)
	assert.Equal(t, "eleven-key", cfg.ElevenLabsKey)
	assert.Equal(t, "voice-1", cfg.TTSVoice)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, camera.SourceDevice, cfg.Camera.Source)
	assert.Equal(t, "/dev/video2", cfg.Camera.Device)
}

func TestApplyCameraSource(t *testing.T) {
	tests := []struct {
		value   string
		source  string
		device  string
		path    string
		command string
	}{
		{"1", camera.SourceDevice, "1", "", ""},
		{"file:/tmp/frames", camera.SourceFile, "", "/tmp/frames", ""},
		{"cmd:libcamera-jpeg -o -", camera.SourceCommand, "", "", "libcamera-jpeg -o -"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			var cfg camera.Config
			applyCameraSource(&cfg, tt.value)
			assert.Equal(t, tt.source, cfg.Source)
			assert.Equal(t, tt.device, cfg.Device)
			assert.Equal(t, tt.path, cfg.Path)
			assert.Equal(t, tt.command, cfg.Command)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFile(filepath.Join(t.TempDir(), "nope.json")))
		assert.Equal(t, DefaultConfig().Camera, cfg.Camera)
	})

	t.Run("merges set fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		data := `{
			"port": "7000",
			"camera": {"source": "file", "path": "/srv/frames", "quality": 60},
			"camera_preset": "low",
			"tts": {"mode": "espeak"}
		}`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFile(path))
		assert.Equal(t, "7000", cfg.Port)
		assert.Equal(t, camera.SourceFile, cfg.Camera.Source)
		assert.Equal(t, "/srv/frames", cfg.Camera.Path)
		assert.Equal(t, 60, cfg.Camera.Quality)
		assert.Equal(t, "low", cfg.CameraPreset)
		assert.Equal(t, TTSEspeak, cfg.TTSMode)
		assert.Equal(t, DefaultConfig().Player, cfg.Player)
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
		cfg := DefaultConfig()
		assert.Error(t, cfg.LoadFile(path))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown preset", func(c *Config) { c.CameraPreset = "nope" }, "CameraPreset"},
		{"bad camera", func(c *Config) { c.Camera.Quality = 0 }, "Camera"},
		{"zero interval", func(c *Config) { c.Interval = 0 }, "Interval"},
		{"negative retries", func(c *Config) { c.VisionRetries = -1 }, "Vision"},
		{"bad orientation", func(c *Config) { c.Orientation = "sideways" }, "Orientation"},
		{"openai without key", func(c *Config) { c.TTSMode = TTSOpenAI }, "OpenAIKey"},
		{"elevenlabs without key", func(c *Config) { c.TTSMode = TTSElevenLabs }, "ElevenLabsKey"},
		{"unknown speech mode", func(c *Config) { c.TTSMode = "robot" }, "TTSMode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.NotEmpty(t, cfgErr.Error())
		})
	}

	t.Run("preset applies", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CameraPreset = camera.PresetNames()[0]
		require.NoError(t, cfg.Validate())
		assert.Equal(t, camera.Presets[cfg.CameraPreset].Quality, cfg.Camera.Quality)
	})

	t.Run("keyed modes pass", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TTSMode = TTSOpenAI
		cfg.OpenAIKey = "k"
		assert.NoError(t, cfg.Validate())
	})
}
