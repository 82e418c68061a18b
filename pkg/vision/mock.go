package vision

import (
	"context"
	"sync"

	"github.com/teslashibe/naveye-assist/pkg/camera"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called on Detect. If nil, nothing is detected.
	DetectFunc func(ctx context.Context, frame camera.Frame) (*Detection, error)

	mu    sync.Mutex
	calls int
}

// NewMock creates a mock that detects nothing.
func NewMock() *Mock {
	return &Mock{}
}

// Returning creates a mock that always answers det, err.
func Returning(det *Detection, err error) *Mock {
	return &Mock{
		DetectFunc: func(context.Context, camera.Frame) (*Detection, error) {
			return det, err
		},
	}
}

// Detect calls DetectFunc and counts the call.
func (m *Mock) Detect(ctx context.Context, frame camera.Frame) (*Detection, error) {
	m.mu.Lock()
	m.calls++
	fn := m.DetectFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, frame)
	}
	return nil, nil
}

// Calls returns how many times Detect was called.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Detector = (*Mock)(nil)
