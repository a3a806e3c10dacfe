package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/konki-burger/internal/cart"
	"github.com/MikeMC777/konki-burger/internal/mail"
	"github.com/MikeMC777/konki-burger/internal/notify"
)

var (
	// ErrEmptyCart is not a failure: callers branch on it and tell the
	// customer to add something first.
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidCustomer = errors.New("invalid customer data")
	ErrInvalidStatus   = errors.New("status must be Accepted or Rejected")
	ErrInvalidPickup   = errors.New("pickup time must be HH:MM")
)

const mailTimeout = 10 * time.Second

var validate = validator.New()

// Counter is anything that can count its records.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type Service struct {
	repo  Repository
	relay notify.Relay
	mail  mail.Sender
}

func NewService(repo Repository, relay notify.Relay, sender mail.Sender) *Service {
	if relay == nil {
		relay = notify.Discard{}
	}
	if sender == nil {
		sender = mail.LogSender{}
	}
	return &Service{repo: repo, relay: relay, mail: sender}
}

func path(id string) string { return "orders/" + id }

// ValidateCustomer checks the checkout form.
func ValidateCustomer(c Customer) error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidCustomer, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidCustomer, err)
	}
	return nil
}

// ValidPickupTime reports whether s is a 24h HH:MM time.
func ValidPickupTime(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// Snapshot freezes cart lines into order items and returns them with their total.
func Snapshot(items []cart.Item) ([]Item, decimal.Decimal) {
	out := make([]Item, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		out = append(out, Item{
			Product: ProductSnapshot{
				ID:    it.Product.ID,
				Name:  it.Product.Name,
				Price: it.Product.Price,
				Image: it.Product.ImageURL,
			},
			Quantity: it.Quantity,
		})
		total = total.Add(it.Subtotal())
	}
	return out, total
}

// Submit records a Pending order for owner ("" or GuestOwner for a guest).
// The cart is not touched; callers clear it once Submit succeeds.
func (s *Service) Submit(ctx context.Context, owner string, customer Customer, items []cart.Item) (*Order, error) {
	lines, total := Snapshot(items)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Email = strings.TrimSpace(customer.Email)
	customer.Address = strings.TrimSpace(customer.Address)
	if err := ValidateCustomer(customer); err != nil {
		return nil, err
	}
	if owner == "" {
		owner = GuestOwner
	}
	o := &Order{
		ID:       uuid.NewString(),
		UserID:   owner,
		Customer: customer,
		Items:    lines,
		Total:    total,
		Status:   StatusPending,
	}
	err := notify.Guard(ctx, s.relay, notify.OpCreate, path(o.ID), o, func(ctx context.Context) error {
		return s.repo.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[order] created id=%s owner=%s total=%s", o.ID, o.UserID, o.Total.StringFixed(2))
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// ListAll returns every order, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.repo.ListAll(ctx, 0)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// UpdateStatus moves a Pending order to Accepted (with a pickup time) or
// Rejected. The confirmation email of an accepted order is sent only after
// the change is committed, and its failure is reported in the result
// without undoing the change.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, pickupTime string) (*StatusResult, error) {
	var pickup *string
	switch status {
	case StatusAccepted:
		pickupTime = strings.TrimSpace(pickupTime)
		if !ValidPickupTime(pickupTime) {
			return nil, ErrInvalidPickup
		}
		pickup = &pickupTime
	case StatusRejected:
	default:
		return nil, ErrInvalidStatus
	}

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.relay.Publish(ctx, &notify.PermissionError{Operation: notify.OpGet, Path: path(id), Err: err})
		}
		return nil, err
	}
	if o.Status.Final() {
		return nil, ErrFinal
	}

	data := map[string]any{"status": status}
	if pickup != nil {
		data["pickupTime"] = *pickup
	}
	if err := s.repo.UpdateStatus(ctx, id, o.UserID, status, pickup); err != nil {
		if !errors.Is(err, ErrFinal) && !errors.Is(err, ErrNotFound) {
			s.relay.Publish(ctx, &notify.PermissionError{Operation: notify.OpUpdate, Path: path(id), RequestData: data, Err: err})
		}
		return nil, err
	}
	o.Status = status
	if pickup != nil {
		o.PickupTime = pickup
	}
	log.Printf("[order] id=%s status=%s", id, status)

	res := &StatusResult{Order: o}
	if status == StatusRejected {
		res.Notice = fmt.Sprintf("Notificación para %s simulada.", o.Customer.Email)
		return res, nil
	}

	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	defer cancel()
	if err := s.mail.Send(mctx, ConfirmationFor(o)); err != nil {
		log.Printf("[order] confirmation email order=%s: %v", id, err)
		res.EmailError = err.Error()
		res.Notice = fmt.Sprintf("Hora de recogida: %s. Pedido aceptado, pero no se pudo enviar el email de confirmación.", *pickup)
		return res, nil
	}
	res.EmailSent = true
	res.Notice = fmt.Sprintf("Hora de recogida: %s. Se ha iniciado el envío del email.", *pickup)
	return res, nil
}

// Dashboard gathers the admin summary: counts and the five latest orders.
func (s *Service) Dashboard(ctx context.Context, users, products Counter) (*Summary, error) {
	var (
		sum Summary
		err error
	)
	if sum.Users, err = users.Count(ctx); err != nil {
		return nil, err
	}
	if sum.Products, err = products.Count(ctx); err != nil {
		return nil, err
	}
	if sum.Orders, sum.Pending, err = s.repo.Count(ctx); err != nil {
		return nil, err
	}
	if sum.Recent, err = s.repo.ListAll(ctx, 5); err != nil {
		return nil, err
	}
	return &sum, nil
}
