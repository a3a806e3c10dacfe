package notify

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetOutput(io.Discard)
}

func TestBus_PublishReachesSubscribers(t *testing.T) {
	b := NewBus()
	var got []string
	unsub := b.Subscribe(func(e *PermissionError) { got = append(got, e.Path) })

	b.Publish(context.Background(), &PermissionError{Operation: OpCreate, Path: "orders"})
	unsub()
	b.Publish(context.Background(), &PermissionError{Operation: OpCreate, Path: "orders/2"})

	assert.Equal(t, []string{"orders"}, got)
}

func TestBus_UnsubscribeTwiceIsHarmless(t *testing.T) {
	b := NewBus()
	unsub := b.Subscribe(func(*PermissionError) {})
	unsub()
	unsub()
	b.Publish(context.Background(), nil)
}

func TestListener_KeepsMostRecent(t *testing.T) {
	b := NewBus()
	l := Listen(b)
	defer l.Close()

	require.Nil(t, l.Last())
	b.Publish(context.Background(), &PermissionError{Operation: OpWrite, Path: "users/u1/cart"})
	b.Publish(context.Background(), &PermissionError{Operation: OpDelete, Path: "products/p1"})

	require.NotNil(t, l.Last())
	assert.Equal(t, "products/p1", l.Last().Path)
	assert.Equal(t, 2, l.Count())
}

func TestGuard_PublishesOnFailureOnly(t *testing.T) {
	b := NewBus()
	l := Listen(b)
	defer l.Close()
	boom := errors.New("permission denied")

	err := Guard(context.Background(), b, OpUpdate, "orders/o1", map[string]string{"status": "Accepted"},
		func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Nil(t, l.Last())

	err = Guard(context.Background(), b, OpUpdate, "orders/o1", map[string]string{"status": "Accepted"},
		func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NotNil(t, l.Last())
	assert.Equal(t, OpUpdate, l.Last().Operation)
	assert.ErrorIs(t, l.Last(), boom)
}

func TestPermissionError_MessageCarriesRequest(t *testing.T) {
	e := &PermissionError{Operation: OpCreate, Path: "orders", RequestData: map[string]any{"total": "23.47"}}
	msg := e.Error()
	assert.True(t, strings.HasPrefix(msg, "missing or insufficient permissions"))
	assert.Contains(t, msg, `"method": "create"`)
	assert.Contains(t, msg, `"total": "23.47"`)
}

func TestSetup_WithoutRedis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r, l := Setup(ctx, nil, "test")
	defer l.Close()

	r.Publish(ctx, &PermissionError{Operation: OpList, Path: "products"})
	require.NotNil(t, l.Last())
	assert.Equal(t, "products", l.Last().Path)
	assert.Equal(t, 1, l.Count())
}
