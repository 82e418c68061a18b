package tts

import (
	"context"
	"sync"
	"time"
)

// Mock is a Provider for tests. Failures queued with FailNext are returned
// first; after that SynthesizeFunc answers, or silent PCM when it is nil.
type Mock struct {
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)
	HealthFunc     func(ctx context.Context) error
	CloseFunc      func() error

	mu     sync.Mutex
	queued []error
	texts  []string
	counts map[string]int
}

// NewMock returns a mock that answers every utterance with silence.
func NewMock() *Mock {
	return &Mock{}
}

// Silence returns 24 kHz PCM silence, about 20ms per character of text.
func Silence(text string) *AudioResult {
	audio := make([]byte, len(text)*960)
	return &AudioResult{
		Audio:     audio,
		Format:    AudioFormat{Encoding: EncodingPCM24, SampleRate: 24000, Channels: 1, BitDepth: 16},
		CharCount: len(text),
		LatencyMs: 1,
		Duration:  pcmDuration(len(audio), EncodingPCM24),
	}
}

// FailNext makes the next n Synthesize calls return err.
func (m *Mock) FailNext(n int, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.queued = append(m.queued, err)
	}
	return m
}

func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.mu.Lock()
	m.count("Synthesize")
	m.texts = append(m.texts, text)
	var err error
	if len(m.queued) > 0 {
		err, m.queued = m.queued[0], m.queued[1:]
	}
	fn := m.SynthesizeFunc
	m.mu.Unlock()

	switch {
	case err != nil:
		return nil, err
	case fn != nil:
		return fn(ctx, text)
	default:
		return Silence(text), nil
	}
}

func (m *Mock) Health(ctx context.Context) error {
	m.mu.Lock()
	m.count("Health")
	m.mu.Unlock()
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.count("Close")
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// count must be called with mu held.
func (m *Mock) count(method string) {
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[method]++
}

// CallCount returns how many times method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[method]
}

// Texts returns the text of every Synthesize call, in order.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Reset forgets recorded calls and queued failures.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued, m.texts, m.counts = nil, nil, nil
}

// WithError returns a mock whose every call fails with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(context.Context, string) (*AudioResult, error) { return nil, err },
		HealthFunc:     func(context.Context) error { return err },
	}
}

// WithLatency delays m's answers by delay, honouring cancellation.
func WithLatency(m *Mock, delay time.Duration) *Mock {
	next := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, text string) (*AudioResult, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if next != nil {
			return next(ctx, text)
		}
		return Silence(text), nil
	}
	return m
}

var _ Provider = (*Mock)(nil)
