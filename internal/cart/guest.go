package cart

import (
	"context"
	"sync"
)

// MemoryGuest is a GuestStore held in memory. The storefront keeps guest
// carts in the session cookie; this one backs tools and tests.
type MemoryGuest struct {
	mu sync.Mutex
	q  Quantities
}

func NewMemoryGuest(q Quantities) *MemoryGuest {
	g := &MemoryGuest{q: Quantities{}}
	for id, n := range q {
		g.q[id] = n
	}
	return g
}

func (g *MemoryGuest) Load(context.Context) (Quantities, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(Quantities, len(g.q))
	for id, n := range g.q {
		out[id] = n
	}
	return out, nil
}

func (g *MemoryGuest) Save(_ context.Context, q Quantities) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.q = Quantities{}
	for id, n := range q {
		if n > 0 {
			g.q[id] = n
		}
	}
	return nil
}

func (g *MemoryGuest) Clear(context.Context) error {
	g.mu.Lock()
	g.q = Quantities{}
	g.mu.Unlock()
	return nil
}

// AddGuest increases the guest quantity of productID and returns the new
// quantity. Non-positive qty is ignored.
func AddGuest(ctx context.Context, g GuestStore, productID string, qty int) (int, error) {
	q, err := g.Load(ctx)
	if err != nil {
		return 0, err
	}
	if qty <= 0 {
		return q[productID], nil
	}
	if q == nil {
		q = Quantities{}
	}
	q[productID] += qty
	return q[productID], g.Save(ctx, q)
}

// UpdateGuest sets the guest quantity of an existing line; qty <= 0 removes it.
func UpdateGuest(ctx context.Context, g GuestStore, productID string, qty int) (bool, error) {
	q, err := g.Load(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := q[productID]; !ok {
		return false, nil
	}
	if qty <= 0 {
		delete(q, productID)
		return false, g.Save(ctx, q)
	}
	q[productID] = qty
	return true, g.Save(ctx, q)
}

func RemoveGuest(ctx context.Context, g GuestStore, productID string) error {
	q, err := g.Load(ctx)
	if err != nil {
		return err
	}
	delete(q, productID)
	return g.Save(ctx, q)
}
