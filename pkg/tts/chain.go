package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultCooldown is how long a provider that just failed is skipped.
// Announcements come every few seconds, so a dead cloud voice would
// otherwise delay each one by a full request timeout.
const DefaultCooldown = 30 * time.Second

// Chain implements Provider by trying providers in order, typically a
// cloud voice first and espeak-ng last. The first success wins.
//
// A provider that fails is benched for the cooldown and tried again after
// it. When every provider is benched, all of them are tried anyway.
type Chain struct {
	providers []Provider
	cooldown  time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	benched []time.Time // per provider: skip until
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithCooldown sets how long a failed provider is skipped. 0 disables benching.
func WithCooldown(d time.Duration) ChainOption {
	return func(c *Chain) { c.cooldown = d }
}

// WithChainLogger sets the chain's logger.
func WithChainLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger.With("component", "tts.chain")
		}
	}
}

// NewChain creates a chain over providers, tried in the given order.
func NewChain(providers []Provider, opts ...ChainOption) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}

	c := &Chain{
		providers: providers,
		cooldown:  DefaultCooldown,
		now:       time.Now,
		logger:    slog.Default().With("component", "tts.chain"),
		benched:   make([]time.Time, len(providers)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Synthesize returns the first provider's audio that succeeds.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	var errs []error

	for _, i := range c.order() {
		result, err := c.providers[i].Synthesize(ctx, text)
		if err == nil {
			c.reinstate(i)
			if len(errs) > 0 {
				c.logger.Info("fallback provider succeeded", "provider_index", i)
			}
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrEmptyText) {
			return nil, err
		}

		errs = append(errs, err)
		until := c.bench(i, err)
		c.logger.Warn("provider failed",
			"provider_index", i,
			"benched_until", until.Format(time.TimeOnly),
			"error", err,
		)
	}

	return nil, &ChainError{Errors: errs}
}

// order lists the providers to try now: every provider not benched, or all
// of them when none is available.
func (c *Chain) order() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var ready []int
	for i, until := range c.benched {
		if !now.Before(until) {
			ready = append(ready, i)
		}
	}
	if len(ready) > 0 {
		return ready
	}

	all := make([]int, len(c.providers))
	for i := range all {
		all[i] = i
	}
	return all
}

func (c *Chain) bench(i int, err error) time.Time {
	d := c.cooldown
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > d {
		d = apiErr.RetryAfter
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.benched[i] = c.now().Add(d)
	}
	return c.benched[i]
}

func (c *Chain) reinstate(i int) {
	c.mu.Lock()
	c.benched[i] = time.Time{}
	c.mu.Unlock()
}

// Available returns how many providers are not benched.
func (c *Chain) Available() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for _, until := range c.benched {
		if !now.Before(until) {
			n++
		}
	}
	return n
}

// Health succeeds when at least one provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var errs []error
	for _, p := range c.providers {
		err := p.Health(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("all %d providers unhealthy: %w", len(c.providers), errors.Join(errs...))
}

// Close closes every provider.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Providers returns the providers in order.
func (c *Chain) Providers() []Provider {
	return c.providers
}

// ChainError holds the failure of every provider that was tried.
type ChainError struct {
	Errors []error
}

func (e *ChainError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "tts chain: no provider tried"
	case 1:
		return "tts chain: " + e.Errors[0].Error()
	default:
		return fmt.Sprintf("tts chain: %d providers failed, last: %v", len(e.Errors), e.Errors[len(e.Errors)-1])
	}
}

// Unwrap exposes every provider error to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}

var _ Provider = (*Chain)(nil)
