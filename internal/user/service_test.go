package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/konki-burger/internal/notify"
)

const primaryAdmin = "konkiburger@gmail.com"

// memRepo implements Repository in memory.
type memRepo struct {
	mu        sync.Mutex
	users     map[string]User
	admins    map[string]bool
	deleteErr error
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]User{}, admins: map[string]bool{}}
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if strings.EqualFold(x.Email, u.Email) {
			return ErrAlreadyExist
		}
	}
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = *u
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) List(context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *memRepo) HasAdminRole(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admins[id], nil
}

func (m *memRepo) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func register(t *testing.T, s *Service, name, email string) *User {
	t.Helper()
	u, err := s.Register(context.Background(), RegisterRequest{
		Name: name, Email: email, Address: "Calle Mayor 12, Madrid", Password: "supersecreta",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterAndAuthenticate(t *testing.T) {
	s := NewService(newMemRepo(), nil, primaryAdmin)
	u := register(t, s, "Ana", "Ana@Example.com")
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "supersecreta", u.PasswordHash)

	got, err := s.Authenticate(context.Background(), "ana@example.com", "supersecreta")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(context.Background(), "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = s.Authenticate(context.Background(), "nobody@example.com", "supersecreta")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestRegister_DuplicateAndWeakPassword(t *testing.T) {
	s := NewService(newMemRepo(), nil, primaryAdmin)
	register(t, s, "Ana", "ana@example.com")

	_, err := s.Register(context.Background(), RegisterRequest{Name: "Ana 2", Email: "ana@example.com", Address: "Otra calle 45, Madrid", Password: "supersecreta"})
	assert.ErrorIs(t, err, ErrAlreadyExist)

	_, err = s.Register(context.Background(), RegisterRequest{Name: "Luis", Email: "luis@example.com", Address: "Otra calle 45, Madrid", Password: "corta"})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestDelete_PrimaryAdminIsProtected(t *testing.T) {
	s := NewService(newMemRepo(), nil, primaryAdmin)
	admin := register(t, s, "Konki", primaryAdmin)
	customer := register(t, s, "Ana", "ana@example.com")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, s.Delete(context.Background(), admin.ID), ErrProtected)
	}
	require.NoError(t, s.Delete(context.Background(), customer.ID))
	_, err := s.Get(context.Background(), customer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(context.Background(), admin.ID)
	assert.NoError(t, err)
}

func TestDelete_FailureIsRelayed(t *testing.T) {
	repo := newMemRepo()
	bus := notify.NewBus()
	l := notify.Listen(bus)
	defer l.Close()
	s := NewService(repo, bus, primaryAdmin)
	u := register(t, s, "Ana", "ana@example.com")

	repo.deleteErr = errors.New("permission denied")
	err := s.Delete(context.Background(), u.ID)
	require.Error(t, err)
	require.NotNil(t, l.Last())
	assert.Equal(t, notify.OpDelete, l.Last().Operation)
	assert.Equal(t, "users/"+u.ID, l.Last().Path)
}

func TestIsAdmin(t *testing.T) {
	repo := newMemRepo()
	s := NewService(repo, nil, primaryAdmin)
	admin := register(t, s, "Konki", primaryAdmin)
	staff := register(t, s, "Staff", "staff@example.com")
	customer := register(t, s, "Ana", "ana@example.com")
	repo.admins[staff.ID] = true

	ctx := context.Background()
	ok, err := s.IsAdmin(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = s.IsAdmin(ctx, staff.ID)
	assert.True(t, ok)
	ok, _ = s.IsAdmin(ctx, customer.ID)
	assert.False(t, ok)
	ok, err = s.IsAdmin(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
