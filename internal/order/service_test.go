package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/konki-burger/internal/cart"
	"github.com/MikeMC777/konki-burger/internal/mail"
	"github.com/MikeMC777/konki-burger/internal/notify"
	"github.com/MikeMC777/konki-burger/internal/product"
)

// memRepo keeps the global orders and the per-user copies apart, like the
// two tables do.
type memRepo struct {
	mu        sync.Mutex
	orders    map[string]Order
	userCopy  map[string]Order
	createErr error
	updateErr error
	clock     time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders:   map[string]Order{},
		userCopy: map[string]Order{},
		clock:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func clone(o Order) Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

func (m *memRepo) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.clock = m.clock.Add(time.Minute)
	o.CreatedAt = m.clock
	m.orders[o.ID] = clone(*o)
	if !o.Guest() {
		m.userCopy[o.ID] = clone(*o)
	}
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o = clone(o)
	return &o, nil
}

func newestFirst(in map[string]Order, keep func(Order) bool) []Order {
	out := []Order{}
	for _, o := range in {
		if keep(o) {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memRepo) ListAll(_ context.Context, limit int) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := newestFirst(m.orders, func(Order) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) ListByUser(_ context.Context, uid string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newestFirst(m.userCopy, func(o Order) bool { return o.UserID == uid }), nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id, owner string, status Status, pickup *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != StatusPending {
		return ErrFinal
	}
	apply := func(o Order) Order {
		o.Status = status
		if pickup != nil {
			p := *pickup
			o.PickupTime = &p
		}
		return o
	}
	m.orders[id] = apply(o)
	if c, ok := m.userCopy[id]; ok && c.UserID == owner {
		m.userCopy[id] = apply(c)
	}
	return nil
}

func (m *memRepo) Count(context.Context) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pending := 0
	for _, o := range m.orders {
		if o.Status == StatusPending {
			pending++
		}
	}
	return len(m.orders), pending, nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Payload
	err  error
}

func (f *fakeMail) Send(_ context.Context, p mail.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	return f.err
}

type fixedCount int

func (n fixedCount) Count(context.Context) (int, error) { return int(n), nil }

func prod(id, name, price string) product.Product {
	return product.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), ImageURL: "https://img.example.com/" + id + ".png"}
}

var (
	clasica = prod("p1", "Konki Clásica", "9.99")
	patatas = prod("p2", "Patatas Doradas", "3.49")
	cola    = prod("p3", "Konki-Cola", "2.49")
	ana     = Customer{Name: "Ana García", Email: "ana@example.com", Address: "Calle Mayor 12, Madrid"}
)

func TestSubmit_GuestScenario(t *testing.T) {
	repo := newMemRepo()
	s := NewService(repo, nil, nil)
	c := cart.New()
	c.Add(clasica, 2)
	c.Add(patatas, 1)

	o, err := s.Submit(context.Background(), "", ana, c.Items())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, GuestOwner, o.UserID)
	assert.Equal(t, "23.47", o.Total.StringFixed(2))
	assert.Equal(t, 3, o.ItemCount())
	assert.False(t, o.CreatedAt.IsZero())
	assert.Nil(t, o.PickupTime)

	stored, _ := repo.Get(context.Background(), o.ID)
	assert.Equal(t, "Konki Clásica", stored.Items[0].Product.Name)
	assert.Equal(t, clasica.ImageURL, stored.Items[0].Product.Image)
	assert.Empty(t, repo.userCopy)
}

func TestSubmit_TotalIsSumOfLines(t *testing.T) {
	s := NewService(newMemRepo(), nil, nil)
	items := []cart.Item{
		{Product: prod("x", "Batido Cósmico", "5.99"), Quantity: 2},
		{Product: prod("y", "Crujipollo Errante", "11.52"), Quantity: 1},
	}
	o, err := s.Submit(context.Background(), "u1", ana, items)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("23.50").Equal(o.Total), "total %s", o.Total)
}

func TestSubmit_SnapshotIsFrozen(t *testing.T) {
	repo := newMemRepo()
	s := NewService(repo, nil, nil)
	p := clasica
	items := []cart.Item{{Product: p, Quantity: 1}}
	o, err := s.Submit(context.Background(), "u1", ana, items)
	require.NoError(t, err)

	// the catalog changes after the order
	items[0].Product.Price = decimal.RequireFromString("99.00")
	items[0].Product.Name = "Konki Deluxe"

	stored, err := s.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "9.99", stored.Items[0].Product.Price.StringFixed(2))
	assert.Equal(t, "Konki Clásica", stored.Items[0].Product.Name)
	assert.Equal(t, "9.99", stored.Total.StringFixed(2))
}

func TestSubmit_OwnedOrderIsDualWritten(t *testing.T) {
	repo := newMemRepo()
	s := NewService(repo, nil, nil)
	o, err := s.Submit(context.Background(), "u1", ana, []cart.Item{{Product: cola, Quantity: 1}})
	require.NoError(t, err)

	mine, err := s.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, o.ID, mine[0].ID)

	theirs, _ := s.ListByUser(context.Background(), "u2")
	assert.Empty(t, theirs)
}

func TestSubmit_EmptyCartAndInvalidCustomer(t *testing.T) {
	s := NewService(newMemRepo(), nil, nil)
	_, err := s.Submit(context.Background(), "", ana, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	bad := Customer{Name: "A", Email: "not-an-email", Address: "corta"}
	_, err = s.Submit(context.Background(), "", bad, []cart.Item{{Product: cola, Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidCustomer)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "address")
}

func TestSubmit_StoreFailureIsRelayed(t *testing.T) {
	repo := newMemRepo()
	repo.createErr = errors.New("permission denied")
	bus := notify.NewBus()
	l := notify.Listen(bus)
	defer l.Close()

	s := NewService(repo, bus, nil)
	_, err := s.Submit(context.Background(), "", ana, []cart.Item{{Product: cola, Quantity: 1}})
	require.Error(t, err)
	require.NotNil(t, l.Last())
	assert.Equal(t, notify.OpCreate, l.Last().Operation)
	assert.Contains(t, l.Last().Path, "orders/")
}

func submitOne(t *testing.T, s *Service, owner string) *Order {
	t.Helper()
	o, err := s.Submit(context.Background(), owner, ana, []cart.Item{{Product: clasica, Quantity: 2}, {Product: patatas, Quantity: 1}})
	require.NoError(t, err)
	return o
}

func TestUpdateStatus_AcceptSendsEmail(t *testing.T) {
	repo := newMemRepo()
	m := &fakeMail{}
	s := NewService(repo, nil, m)
	o := submitOne(t, s, "u1")

	res, err := s.UpdateStatus(context.Background(), o.ID, StatusAccepted, "13:30")
	require.NoError(t, err)
	assert.True(t, res.EmailSent)
	assert.Empty(t, res.EmailError)
	assert.Equal(t, "Hora de recogida: 13:30. Se ha iniciado el envío del email.", res.Notice)
	assert.Equal(t, StatusAccepted, res.Order.Status)
	require.NotNil(t, res.Order.PickupTime)
	assert.Equal(t, "13:30", *res.Order.PickupTime)

	require.Len(t, m.sent, 1)
	p := m.sent[0]
	assert.Equal(t, "ana@example.com", p.To)
	assert.Equal(t, "Ana García", p.Name)
	assert.Equal(t, o.ID, p.OrderID)
	assert.Equal(t, "13:30", p.PickupTime)
	assert.Equal(t, "23.47", p.Total.StringFixed(2))
	assert.Len(t, p.Items, 2)

	// both copies moved
	assert.Equal(t, StatusAccepted, repo.orders[o.ID].Status)
	assert.Equal(t, StatusAccepted, repo.userCopy[o.ID].Status)
	assert.Equal(t, "13:30", *repo.userCopy[o.ID].PickupTime)
}

func TestUpdateStatus_EmailFailureKeepsAccepted(t *testing.T) {
	repo := newMemRepo()
	m := &fakeMail{err: errors.New("smtp down")}
	s := NewService(repo, nil, m)
	o := submitOne(t, s, "")

	res, err := s.UpdateStatus(context.Background(), o.ID, StatusAccepted, "13:30")
	require.NoError(t, err)
	assert.False(t, res.EmailSent)
	assert.Equal(t, "smtp down", res.EmailError)
	assert.Equal(t, "Hora de recogida: 13:30. Pedido aceptado, pero no se pudo enviar el email de confirmación.", res.Notice)
	assert.Len(t, m.sent, 1)

	stored, _ := s.Get(context.Background(), o.ID)
	assert.Equal(t, StatusAccepted, stored.Status)
	assert.Equal(t, "13:30", *stored.PickupTime)
}

func TestUpdateStatus_RejectSendsNoEmail(t *testing.T) {
	m := &fakeMail{}
	s := NewService(newMemRepo(), nil, m)
	o := submitOne(t, s, "")

	res, err := s.UpdateStatus(context.Background(), o.ID, StatusRejected, "")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Order.Status)
	assert.Nil(t, res.Order.PickupTime)
	assert.Empty(t, m.sent)
	assert.Equal(t, "Notificación para ana@example.com simulada.", res.Notice)
}

func TestUpdateStatus_TerminalIsFinal(t *testing.T) {
	m := &fakeMail{}
	s := NewService(newMemRepo(), nil, m)
	o := submitOne(t, s, "u1")
	_, err := s.UpdateStatus(context.Background(), o.ID, StatusRejected, "")
	require.NoError(t, err)

	_, err = s.UpdateStatus(context.Background(), o.ID, StatusAccepted, "14:00")
	assert.ErrorIs(t, err, ErrFinal)
	_, err = s.UpdateStatus(context.Background(), o.ID, StatusRejected, "")
	assert.ErrorIs(t, err, ErrFinal)
	assert.Empty(t, m.sent)

	stored, _ := s.Get(context.Background(), o.ID)
	assert.Equal(t, StatusRejected, stored.Status)
}

func TestUpdateStatus_Validation(t *testing.T) {
	s := NewService(newMemRepo(), nil, &fakeMail{})
	o := submitOne(t, s, "")
	ctx := context.Background()

	_, err := s.UpdateStatus(ctx, o.ID, StatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = s.UpdateStatus(ctx, o.ID, "Shipped", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	for _, bad := range []string{"", "1330", "25:00", "9:30", "13:3a"} {
		_, err = s.UpdateStatus(ctx, o.ID, StatusAccepted, bad)
		assert.ErrorIs(t, err, ErrInvalidPickup, bad)
	}
	_, err = s.UpdateStatus(ctx, "missing", StatusRejected, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_WriteFailureIsRelayed(t *testing.T) {
	repo := newMemRepo()
	bus := notify.NewBus()
	l := notify.Listen(bus)
	defer l.Close()
	m := &fakeMail{}
	s := NewService(repo, bus, m)
	o := submitOne(t, s, "")

	repo.updateErr = errors.New("permission denied")
	_, err := s.UpdateStatus(context.Background(), o.ID, StatusAccepted, "13:30")
	require.Error(t, err)
	assert.Empty(t, m.sent)
	require.NotNil(t, l.Last())
	assert.Equal(t, notify.OpUpdate, l.Last().Operation)
	assert.Equal(t, "orders/"+o.ID, l.Last().Path)
}

func TestDashboard(t *testing.T) {
	s := NewService(newMemRepo(), nil, &fakeMail{})
	var last *Order
	for i := 0; i < 7; i++ {
		last = submitOne(t, s, "")
	}
	_, err := s.UpdateStatus(context.Background(), last.ID, StatusRejected, "")
	require.NoError(t, err)

	sum, err := s.Dashboard(context.Background(), fixedCount(4), fixedCount(10))
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Users)
	assert.Equal(t, 10, sum.Products)
	assert.Equal(t, 7, sum.Orders)
	assert.Equal(t, 6, sum.Pending)
	require.Len(t, sum.Recent, 5)
	assert.Equal(t, last.ID, sum.Recent[0].ID)
}
