package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/konki-burger/internal/notify"
)

func openSession(t *testing.T, store *memStore, relay notify.Relay) *Session {
	t.Helper()
	s := NewSession("u1", store, catalog(), relay)
	t.Cleanup(s.Close)
	_, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	return s
}

func TestSession_MirrorsWritesInOrder(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := openSession(t, store, nil)

	assert.Equal(t, 1, s.Add(clasica, 1))
	assert.Equal(t, 2, s.Add(clasica, 1))
	s.Add(patatas, 3)
	assert.True(t, s.Update(patatas.ID, 1))
	s.Remove(clasica.ID)
	s.Add(konkiCol, 2)

	require.NoError(t, s.Flush(ctx))
	remote, _ := store.Load(ctx, "u1")
	assert.Equal(t, Quantities{"b": 1, "c": 2}, remote)
	assert.Equal(t, remote, s.Cart().Quantities())
}

func TestSession_UpdateToZeroRemoves(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := openSession(t, store, nil)
	s.Add(clasica, 2)

	assert.False(t, s.Update(clasica.ID, 0))
	require.NoError(t, s.Flush(ctx))
	remote, _ := store.Load(ctx, "u1")
	assert.Empty(t, remote)
	assert.Equal(t, 0, s.Cart().Count())
}

func TestSession_FailedMirrorReconcilesOnNextSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.carts["u1"] = Quantities{"a": 1}

	bus := notify.NewBus()
	l := notify.Listen(bus)
	defer l.Close()

	s := openSession(t, store, bus)
	store.setFail(errors.New("permission denied"))

	// optimistic: the in-memory cart moves before the write is attempted
	assert.Equal(t, 3, s.Add(clasica, 2))
	assert.Equal(t, 3, s.Cart().Quantity(clasica.ID))

	require.NoError(t, s.Flush(ctx))
	assert.True(t, s.Stale())
	require.NotNil(t, l.Last())
	assert.Equal(t, notify.OpWrite, l.Last().Operation)
	assert.Equal(t, "users/u1/cart/a", l.Last().Path)

	store.setFail(nil)
	v, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, s.Stale())
	assert.Equal(t, 1, v.Count)
	assert.Equal(t, 1, s.Cart().Quantity(clasica.ID))
}

func TestSession_FailingStoreDoesNotBlockMutations(t *testing.T) {
	store := newMemStore()
	store.delay = 2 * time.Millisecond
	s := openSession(t, store, notify.NewBus())
	store.setFail(errors.New("permission denied"))

	// more mutations than the writer queue holds, all failing slowly
	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Add(clasica, 1)
			}()
		}
		wg.Wait()
		s.Close()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("las mutaciones se bloquearon con el almacén fallando")
	}
	assert.True(t, s.Stale())
	assert.Equal(t, 200, s.Cart().Quantity(clasica.ID))
}

func TestSession_ConcurrentAddsMirrorFinalQuantity(t *testing.T) {
	ctx := context.Background()
	for round := 0; round < 50; round++ {
		store := newMemStore()
		s := openSession(t, store, nil)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Add(clasica, 1)
				s.Add(patatas, 2)
			}()
		}
		wg.Wait()

		require.NoError(t, s.Flush(ctx))
		remote, _ := store.Load(ctx, "u1")
		require.Equal(t, s.Cart().Quantities(), remote, "ronda %d", round)
		assert.Equal(t, Quantities{"a": 8, "b": 16}, remote)
	}
}

func TestSession_ClearEmptiesBothSides(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.carts["u1"] = Quantities{"a": 2, "b": 1}
	s := openSession(t, store, nil)
	assert.Equal(t, 3, s.Cart().Count())

	s.Clear()
	require.NoError(t, s.Flush(ctx))
	remote, _ := store.Load(ctx, "u1")
	assert.Empty(t, remote)
	assert.Empty(t, s.Cart().Items())
}

func TestSession_WritesAfterCloseRunInline(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := NewSession("u1", store, catalog(), nil)
	s.Close()
	s.Close()

	s.Add(clasica, 1)
	remote, _ := store.Load(ctx, "u1")
	assert.Equal(t, Quantities{"a": 1}, remote)
	require.NoError(t, s.Flush(ctx))
}

func TestRegistry_OpenDrop(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.carts["u1"] = Quantities{"b": 2}
	reg := NewRegistry(store, catalog(), nil)
	defer reg.Close()

	s1, err := reg.Open(ctx, "u1")
	require.NoError(t, err)
	s2, err := reg.Open(ctx, "u1")
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 2, s1.Cart().Quantity("b"))

	reg.Drop("u1")
	s3, err := reg.Open(ctx, "u1")
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
	require.NoError(t, reg.Refresh(ctx, "nobody"))
}
