package app

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/naveye-assist/pkg/camera"
	"github.com/teslashibe/naveye-assist/pkg/capture"
)

func writeJPEG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	path := filepath.Join(dir, "frame.jpg")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
	return path
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Port = "0"
	cfg.LogLevel = "error"
	cfg.TTSMode = TTSLog
	cfg.VisionAPIKey = "test-key"
	cfg.VisionEndpoint = "http://127.0.0.1:1/"
	cfg.Camera.Source = camera.SourceFile
	cfg.Camera.Path = writeJPEG(t, dir)
	cfg.Camera.PreviewFPS = 0
	cfg.InquiriesPath = filepath.Join(dir, "inquiries.json")
	cfg.Interval = time.Hour
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.TTSMode = "banana"

	_, err := New(cfg)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "TTSMode", cfgErr.Field)
}

func TestRunServesAndStartsLoop(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Init(ctx))
	defer a.Shutdown()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.Addr() != nil && a.Loop().Started()
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + a.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, capture.StateIdle, a.Loop().State())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunKeepsServingWhenCameraDenied(t *testing.T) {
	cfg := testConfig(t)
	cfg.Camera.Source = camera.SourceDevice
	cfg.Camera.Device = filepath.Join(t.TempDir(), "video9")

	a, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Init(ctx))
	defer a.Shutdown()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.Announcer().Caption() == PermissionDeniedCaption
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, a.Loop().Started())

	resp, err := http.Get("http://" + a.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	<-done
}

func TestRunBeforeInit(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	assert.Error(t, a.Run(context.Background()))
}

func TestShutdownTwice(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, a.Init(context.Background()))
	a.Shutdown()
	a.Shutdown()
}
