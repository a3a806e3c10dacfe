package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MikeMC777/konki-burger/internal/notify"
	"github.com/MikeMC777/konki-burger/internal/product"
)

const mirrorTimeout = 5 * time.Second

type mirrorOp struct {
	op      notify.Operation
	path    string
	data    any
	write   func(ctx context.Context) error
	barrier chan struct{}
}

// Session is the cart of a logged-in user. Mutations land in memory first and
// are mirrored to the Store in order by a single writer goroutine; callers
// never wait for the mirror. A failed mirror write is relayed and marks the
// session stale, and the next Snapshot reloads it from the Store.
//
// mu serializes each in-memory mutation with the queueing of its mirror write,
// so the Store sees writes in the order memory applied them. The writer never
// takes mu.
type Session struct {
	uid     string
	cart    *Cart
	store   Store
	catalog Catalog
	relay   notify.Relay

	mu     sync.Mutex
	stale  atomic.Bool
	closed bool
	ops    chan mirrorOp
	done   chan struct{}
}

func NewSession(uid string, store Store, catalog Catalog, relay notify.Relay) *Session {
	if relay == nil {
		relay = notify.Discard{}
	}
	s := &Session{
		uid:     uid,
		cart:    New(),
		store:   store,
		catalog: catalog,
		relay:   relay,
		ops:     make(chan mirrorOp, 64),
		done:    make(chan struct{}),
	}
	s.stale.Store(true)
	go s.writer()
	return s
}

func (s *Session) UserID() string { return s.uid }

func (s *Session) writer() {
	defer close(s.done)
	for op := range s.ops {
		s.apply(op)
	}
}

func (s *Session) apply(op mirrorOp) {
	if op.barrier != nil {
		close(op.barrier)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := notify.Guard(ctx, s.relay, op.op, op.path, op.data, op.write); err != nil {
		s.Invalidate()
	}
}

// enqueueLocked hands op to the writer, or applies it inline once the
// session is closed. Callers hold s.mu.
func (s *Session) enqueueLocked(op mirrorOp) {
	if s.closed {
		s.apply(op)
		return
	}
	s.ops <- op
}

// mutate runs fn and queues the mirror write it returns as one step.
func (s *Session) mutate(fn func() (mirrorOp, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op, ok := fn(); ok {
		s.enqueueLocked(op)
	}
}

// Invalidate marks the in-memory cart as out of date.
func (s *Session) Invalidate() { s.stale.Store(true) }

func (s *Session) Stale() bool { return s.stale.Load() }

// Flush blocks until every mirror write queued so far has been attempted.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Session) flushLocked(ctx context.Context) error {
	barrier := make(chan struct{})
	s.enqueueLocked(mirrorOp{barrier: barrier})
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload replaces the in-memory cart with the Store content once pending
// mirror writes have been attempted. Mutations wait while it runs.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushLocked(ctx); err != nil {
		return err
	}
	q, err := s.store.Load(ctx, s.uid)
	if err != nil {
		s.relay.Publish(ctx, &notify.PermissionError{Operation: notify.OpList, Path: Path(s.uid), Err: err})
		return err
	}
	items, err := Resolve(ctx, s.catalog, q)
	if err != nil {
		return err
	}
	s.cart.Replace(items)
	s.stale.Store(false)
	return nil
}

// Snapshot returns the cart, reloading it first when it is stale.
func (s *Session) Snapshot(ctx context.Context) (View, error) {
	if s.Stale() {
		if err := s.Reload(ctx); err != nil {
			return View{}, err
		}
	}
	return s.cart.View(), nil
}

// Cart exposes the in-memory cart for reads.
func (s *Session) Cart() *Cart { return s.cart }

func (s *Session) Add(p product.Product, qty int) int {
	var n int
	s.mutate(func() (mirrorOp, bool) {
		n = s.cart.Add(p, qty)
		if qty <= 0 {
			return mirrorOp{}, false
		}
		set := n
		return mirrorOp{
			op: notify.OpWrite, path: itemPath(s.uid, p.ID), data: map[string]int{"quantity": set},
			write: func(ctx context.Context) error { return s.store.Set(ctx, s.uid, p.ID, set) },
		}, true
	})
	return n
}

func (s *Session) removeOp(productID string) mirrorOp {
	return mirrorOp{
		op: notify.OpDelete, path: itemPath(s.uid, productID),
		write: func(ctx context.Context) error { return s.store.Delete(ctx, s.uid, productID) },
	}
}

func (s *Session) Remove(productID string) {
	s.mutate(func() (mirrorOp, bool) {
		s.cart.Remove(productID)
		return s.removeOp(productID), true
	})
}

// Update sets a quantity; qty <= 0 is a removal.
func (s *Session) Update(productID string, qty int) bool {
	kept := false
	s.mutate(func() (mirrorOp, bool) {
		if qty <= 0 {
			s.cart.Remove(productID)
			return s.removeOp(productID), true
		}
		if kept = s.cart.Update(productID, qty); !kept {
			return mirrorOp{}, false
		}
		return mirrorOp{
			op: notify.OpUpdate, path: itemPath(s.uid, productID), data: map[string]int{"quantity": qty},
			write: func(ctx context.Context) error { return s.store.Set(ctx, s.uid, productID, qty) },
		}, true
	})
	return kept
}

func (s *Session) Clear() {
	s.mutate(func() (mirrorOp, bool) {
		s.cart.Clear()
		return mirrorOp{
			op: notify.OpDelete, path: Path(s.uid),
			write: func(ctx context.Context) error { return s.store.Clear(ctx, s.uid) },
		}, true
	})
}

// Close stops the writer after the queued writes have been attempted.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ops)
	s.mu.Unlock()
	<-s.done
}

// Registry keeps one Session per logged-in user.
type Registry struct {
	store   Store
	catalog Catalog
	relay   notify.Relay

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(store Store, catalog Catalog, relay notify.Relay) *Registry {
	return &Registry{store: store, catalog: catalog, relay: relay, sessions: make(map[string]*Session)}
}

// Open returns the user's session, loading it from the Store on first use.
func (r *Registry) Open(ctx context.Context, uid string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[uid]
	if !ok {
		s = NewSession(uid, r.store, r.catalog, r.relay)
		r.sessions[uid] = s
	}
	r.mu.Unlock()

	if _, err := s.Snapshot(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh reloads the user's session if one is open.
func (r *Registry) Refresh(ctx context.Context, uid string) error {
	r.mu.Lock()
	s, ok := r.sessions[uid]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Reload(ctx)
}

// Drop closes and forgets the user's session.
func (r *Registry) Drop(uid string) {
	r.mu.Lock()
	s, ok := r.sessions[uid]
	delete(r.sessions, uid)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Close drops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
