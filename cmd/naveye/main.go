// NavEye Assist - spoken object detection for people with low vision.
// Captures a frame every few seconds, finds the top object with Google Cloud
// Vision and says where it is.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/teslashibe/naveye-assist/pkg/app"
	"github.com/teslashibe/naveye-assist/pkg/camera"
)

func main() {
	cfg := parseFlags()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Init(ctx); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer a.Shutdown()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags builds the configuration: defaults, then ~/.naveye/config.json,
// then environment variables, then flags.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()

	configPath := flag.String("config", app.ConfigPath(), "Path to the JSON config file")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	port := flag.String("port", "", "Web surface port (overrides NAVEYE_PORT)")
	source := flag.String("camera", "", "Camera source: device, command or file")
	device := flag.String("device", "", "Camera device index or path")
	path := flag.String("path", "", "Image file or directory for the file source")
	preset := flag.String("preset", "", "Camera preset: low, default, high")
	interval := flag.Duration("interval", cfg.Interval, "Time between automatic captures")
	cycleTimeout := flag.Duration("cycle-timeout", 0, "Upper bound for one capture cycle (0 = none)")
	visionTimeout := flag.Duration("vision-timeout", 0, "Vision request timeout (0 = none)")
	visionRetries := flag.Int("vision-retries", 0, "Retries for failed vision requests")
	ttsMode := flag.String("tts", "", "Speech: auto, openai, elevenlabs, espeak, log")
	ttsVoice := flag.String("tts-voice", "", "Voice name or ID")
	player := flag.String("player", "", "Audio player binary")
	accessLog := flag.Bool("access-log", false, "Log every HTTP request")
	flag.Parse()

	if err := cfg.LoadFile(*configPath); err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	cfg.LoadEnvConfig()

	cfg.Debug = *debug
	cfg.AccessLog = *accessLog
	cfg.Interval = *interval
	cfg.CycleTimeout = *cycleTimeout
	cfg.VisionTimeout = *visionTimeout
	cfg.VisionRetries = *visionRetries

	if *port != "" {
		cfg.Port = *port
	}
	if *source != "" {
		cfg.Camera.Source = *source
	}
	if *device != "" {
		cfg.Camera.Source = camera.SourceDevice
		cfg.Camera.Device = *device
	}
	if *path != "" {
		cfg.Camera.Source = camera.SourceFile
		cfg.Camera.Path = *path
	}
	if *preset != "" {
		cfg.CameraPreset = *preset
	}
	if *ttsMode != "" {
		cfg.TTSMode = *ttsMode
	}
	if *ttsVoice != "" {
		cfg.TTSVoice = *ttsVoice
	}
	if *player != "" {
		cfg.Player = *player
	}
	return cfg
}
