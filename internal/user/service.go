package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeMC777/konki-burger/internal/notify"
)

var (
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrProtected         = errors.New("the primary admin account cannot be deleted")
	ErrWeakPassword      = errors.New("password must be at least 8 characters")
)

type Service struct {
	repo         Repository
	relay        notify.Relay
	primaryAdmin string
}

// NewService builds the user service. primaryAdminEmail identifies the
// immutable primary administrator.
func NewService(repo Repository, relay notify.Relay, primaryAdminEmail string) *Service {
	if relay == nil {
		relay = notify.Discard{}
	}
	return &Service{repo: repo, relay: relay, primaryAdmin: strings.TrimSpace(primaryAdminEmail)}
}

func (s *Service) isPrimary(u *User) bool {
	return s.primaryAdmin != "" && strings.EqualFold(u.Email, s.primaryAdmin)
}

// Register creates the credentials and the profile of a new customer.
func (s *Service) Register(ctx context.Context, in RegisterRequest) (*User, error) {
	if len(in.Password) < 8 {
		return nil, ErrWeakPassword
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash error: %w", err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Address:      strings.TrimSpace(in.Address),
		PasswordHash: hash,
	}
	if u.Address == "" {
		u.Address = "Not provided"
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, err
		}
		s.relay.Publish(ctx, &notify.PermissionError{
			Operation: notify.OpCreate, Path: "users/" + u.ID,
			RequestData: map[string]string{"name": u.Name, "email": u.Email}, Err: err,
		})
		return nil, fmt.Errorf("create error: %w", err)
	}
	return u, nil
}

// Authenticate checks the credentials. Unknown emails and wrong passwords
// are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredential
	}
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("auth error: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredential
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Delete removes a user. The primary admin is refused with ErrProtected.
func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.isPrimary(u) {
		return ErrProtected
	}
	var ok bool
	err = notify.Guard(ctx, s.relay, notify.OpDelete, "users/"+id, nil, func(ctx context.Context) error {
		var derr error
		ok, derr = s.repo.Delete(ctx, id)
		return derr
	})
	if err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// IsAdmin is true for the primary admin email or for users holding a role marker.
func (s *Service) IsAdmin(ctx context.Context, id string) (bool, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if s.isPrimary(u) {
		return true, nil
	}
	return s.repo.HasAdminRole(ctx, id)
}

// Exists reports whether a user with that id is registered.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
