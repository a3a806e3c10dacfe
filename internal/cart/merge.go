package cart

import (
	"context"
	"log"

	"github.com/MikeMC777/konki-burger/internal/notify"
)

// Merger moves a guest cart into a user's remote cart at login.
type Merger struct {
	store    Store
	registry *Registry
	relay    notify.Relay
}

func NewMerger(store Store, registry *Registry, relay notify.Relay) *Merger {
	if relay == nil {
		relay = notify.Discard{}
	}
	return &Merger{store: store, registry: registry, relay: relay}
}

// MergeGuest adds the guest quantities on top of the remote cart in one
// atomic batch. The guest cart is cleared and the user's session refreshed
// only when the batch commits; on failure both carts are left untouched.
func (m *Merger) MergeGuest(ctx context.Context, uid string, guest GuestStore) error {
	g, err := guest.Load(ctx)
	if err != nil {
		return err
	}
	if len(g) == 0 {
		return nil
	}
	remote, err := m.store.Load(ctx, uid)
	if err != nil {
		m.relay.Publish(ctx, &notify.PermissionError{Operation: notify.OpList, Path: Path(uid), Err: err})
		return err
	}
	merged := Merge(remote, g)
	err = notify.Guard(ctx, m.relay, notify.OpWrite, Path(uid), merged, func(ctx context.Context) error {
		return m.store.SetMany(ctx, uid, merged)
	})
	if err != nil {
		log.Printf("[cart] merge user=%s failed: %v", uid, err)
		return err
	}
	if err := guest.Clear(ctx); err != nil {
		log.Printf("[cart] clear guest cart user=%s: %v", uid, err)
	}
	if m.registry != nil {
		return m.registry.Refresh(ctx, uid)
	}
	return nil
}
