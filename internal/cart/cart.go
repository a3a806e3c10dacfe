// Package cart holds the shopping cart: the in-memory cart, the guest and
// remote quantity stores, the guest-to-remote merge and the optimistic
// per-user session.
package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/konki-burger/internal/product"
)

// Quantities maps product id to quantity.
type Quantities map[string]int

type Item struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price × quantity.
func (it Item) Subtotal() decimal.Decimal {
	return it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Merge adds guest quantities on top of remote ones. Neither input is modified.
func Merge(remote, guest Quantities) Quantities {
	out := make(Quantities, len(remote)+len(guest))
	for id, q := range remote {
		if q > 0 {
			out[id] = q
		}
	}
	for id, q := range guest {
		if q > 0 {
			out[id] += q
		}
	}
	return out
}

// Cart is the in-memory cart. Quantities are always positive; a line whose
// quantity would drop to zero or below is removed instead.
type Cart struct {
	mu      sync.RWMutex
	items   []Item
	version uint64
}

func New(items ...Item) *Cart {
	c := &Cart{}
	c.items = normalize(items)
	return c
}

func normalize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity > 0 {
			out = append(out, it)
		}
	}
	return out
}

func (c *Cart) indexOf(id string) int {
	for i, it := range c.items {
		if it.Product.ID == id {
			return i
		}
	}
	return -1
}

// Add increases the quantity of p by qty and returns the resulting quantity.
// Non-positive qty leaves the cart unchanged.
func (c *Cart) Add(p product.Product, qty int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(p.ID)
	if qty <= 0 {
		if i < 0 {
			return 0
		}
		return c.items[i].Quantity
	}
	c.version++
	if i < 0 {
		c.items = append(c.items, Item{Product: p, Quantity: qty})
		return qty
	}
	c.items[i].Quantity += qty
	return c.items[i].Quantity
}

// Remove drops the line for id and reports whether it existed.
func (c *Cart) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.version++
	return true
}

// Update sets the quantity of an existing line. qty <= 0 removes it.
// It reports whether the line is still present afterwards.
func (c *Cart) Update(id string, qty int) bool {
	if qty <= 0 {
		c.Remove(id)
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.items[i].Quantity = qty
	c.version++
	return true
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.version++
	c.mu.Unlock()
}

// Replace swaps the whole content, typically after a reload from the store.
func (c *Cart) Replace(items []Item) {
	c.mu.Lock()
	c.items = normalize(items)
	c.version++
	c.mu.Unlock()
}

func (c *Cart) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Item(nil), c.items...)
}

func (c *Cart) Quantity(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// Total is the sum of price × quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Count is the sum of quantities.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Quantities() Quantities {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q := make(Quantities, len(c.items))
	for _, it := range c.items {
		q[it.Product.ID] = it.Quantity
	}
	return q
}

func (c *Cart) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// View is a consistent read of a cart.
type View struct {
	Items   []Item          `json:"items"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Version uint64          `json:"version"`
}

func (c *Cart) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := View{Items: append([]Item{}, c.items...), Total: decimal.Zero, Version: c.version}
	for _, it := range c.items {
		v.Total = v.Total.Add(it.Subtotal())
		v.Count += it.Quantity
	}
	return v
}

// Catalog resolves product ids to current product data.
type Catalog interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]product.Product, error)
}

// Resolve turns quantities into cart items. Lines whose product no longer
// exists are dropped. Items are ordered by product name.
func Resolve(ctx context.Context, cat Catalog, q Quantities) ([]Item, error) {
	if len(q) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(q))
	for id := range q {
		ids = append(ids, id)
	}
	products, err := cat.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(q))
	for id, qty := range q {
		p, ok := products[id]
		if !ok || qty <= 0 {
			continue
		}
		items = append(items, Item{Product: p, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Product.Name == items[j].Product.Name {
			return items[i].Product.ID < items[j].Product.ID
		}
		return items[i].Product.Name < items[j].Product.Name
	})
	return items, nil
}
