package notify

import (
	"context"
	"log"
	"sync"
)

// Relay receives every storage failure observed by a component.
type Relay interface {
	Publish(ctx context.Context, e *PermissionError)
}

// Handler is a subscriber callback.
type Handler func(e *PermissionError)

// Bus is a typed in-process publish/subscribe channel.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers h and returns the function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(_ context.Context, e *PermissionError) {
	if e == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Listener is the process-lifetime subscriber that keeps the most recent error.
type Listener struct {
	mu    sync.RWMutex
	last  *PermissionError
	count int
	stop  func()
}

// Listen attaches a new Listener to the bus.
func Listen(b *Bus) *Listener {
	l := &Listener{}
	l.stop = b.Subscribe(l.handle)
	return l
}

func (l *Listener) handle(e *PermissionError) {
	l.mu.Lock()
	l.last = e
	l.count++
	l.mu.Unlock()
	log.Printf("[relay] op=%s path=%s err=%v", e.Operation, e.Path, e.Err)
}

// Last returns the most recently received error, or nil.
func (l *Listener) Last() *PermissionError {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Count is the number of errors received since Listen.
func (l *Listener) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

func (l *Listener) Close() { l.stop() }

// Guard runs a storage write and publishes a PermissionError when it fails.
// The original error is returned unchanged.
func Guard(ctx context.Context, r Relay, op Operation, path string, data any, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err != nil && r != nil {
		r.Publish(ctx, &PermissionError{Operation: op, Path: path, RequestData: data, Err: err})
	}
	return err
}

// Discard drops everything. Useful when a component needs a Relay but nobody listens.
type Discard struct{}

func (Discard) Publish(context.Context, *PermissionError) {}
