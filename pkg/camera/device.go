package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// DeviceSource captures from a local camera through OpenCV.
type DeviceSource struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	closed bool
}

// NewDeviceSource opens the configured device.
func NewDeviceSource(cfg Config, logger *slog.Logger) (*DeviceSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	vc, err := gocv.OpenVideoCapture(cfg.DeviceID())
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %s: device not available", cfg.Device)
	}

	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	return &DeviceSource{
		cfg:    cfg,
		logger: logger.With("component", "camera.device"),
		vc:     vc,
		mat:    gocv.NewMat(),
	}, nil
}

// Capture reads the next frame, downscales it and encodes it as JPEG.
func (d *DeviceSource) Capture(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return Frame{}, ErrClosed
	}

	if ok := d.vc.Read(&d.mat); !ok || d.mat.Empty() {
		return Frame{}, fmt.Errorf("read camera %s: %w", d.cfg.Device, ErrEmptyFrame)
	}

	img := d.mat
	if d.cfg.MaxWidth > 0 && d.mat.Cols() > d.cfg.MaxWidth {
		scale := float64(d.cfg.MaxWidth) / float64(d.mat.Cols())
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(d.mat, &resized, image.Point{}, scale, scale, gocv.InterpolationArea)
		img = resized
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, d.cfg.Quality})
	if err != nil {
		return Frame{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)

	return Frame{
		JPEG:       out,
		Width:      img.Cols(),
		Height:     img.Rows(),
		CapturedAt: time.Now(),
	}, nil
}

// Close releases the device.
func (d *DeviceSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.mat.Close()
	return d.vc.Close()
}

var _ Source = (*DeviceSource)(nil)
