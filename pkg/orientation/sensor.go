package orientation

import (
	"context"
	"sync"
)

// Sensor reports device rotation on demand and through change notifications.
type Sensor interface {
	// Current returns the latest raw reading.
	Current(ctx context.Context) (Raw, error)

	// Subscribe registers fn for every change. The returned func removes it.
	Subscribe(fn func(Raw)) (unsubscribe func())
}

// Broadcaster is an in-process Sensor. Readings are pushed with Set, for example
// by the web surface relaying the browser's screen orientation.
type Broadcaster struct {
	mu      sync.Mutex
	current Raw
	subs    map[int]func(Raw)
	nextID  int
}

// NewBroadcaster creates a sensor holding an initial reading.
func NewBroadcaster(initial Raw) *Broadcaster {
	return &Broadcaster{
		current: initial,
		subs:    make(map[int]func(Raw)),
	}
}

// Current returns the last reading passed to Set.
func (b *Broadcaster) Current(ctx context.Context) (Raw, error) {
	if err := ctx.Err(); err != nil {
		return RawUnknown, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, nil
}

// Subscribe registers fn for subsequent Set calls.
func (b *Broadcaster) Subscribe(fn func(Raw)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Set records a new reading and notifies subscribers outside the lock.
func (b *Broadcaster) Set(r Raw) {
	b.mu.Lock()
	b.current = r
	subs := make([]func(Raw), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(r)
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

var _ Sensor = (*Broadcaster)(nil)
