package camera

import (
	"context"
	"sync"
	"time"
)

// Mock implements Source for testing.
type Mock struct {
	// CaptureFunc is called on Capture. If nil, a tiny placeholder frame is returned.
	CaptureFunc func(ctx context.Context) (Frame, error)

	mu       sync.Mutex
	captures int
	closed   bool
}

// NewMock creates a mock returning placeholder frames.
func NewMock() *Mock {
	return &Mock{}
}

// Capture calls CaptureFunc and counts the call.
func (m *Mock) Capture(ctx context.Context) (Frame, error) {
	m.mu.Lock()
	m.captures++
	fn := m.CaptureFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return Frame{JPEG: []byte{0xFF, 0xD8, 0xFF, 0xD9}, Width: 1, Height: 1, CapturedAt: time.Now()}, nil
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Captures returns how many times Capture was called.
func (m *Mock) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockOpener returns an Opener handing out m on every mount.
func MockOpener(m *Mock) Opener {
	return func(Config) (Source, error) {
		m.mu.Lock()
		m.closed = false
		m.mu.Unlock()
		return m, nil
	}
}

var _ Source = (*Mock)(nil)
