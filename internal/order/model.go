package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

// Final reports whether no further transition is allowed from s.
func (s Status) Final() bool { return s == StatusAccepted || s == StatusRejected }

// GuestOwner is the owner of orders placed without a session.
const GuestOwner = "guest"

type Customer struct {
	Name    string `json:"name"    binding:"required,min=2"  validate:"required,min=2"  example:"Ana García"`
	Email   string `json:"email"   binding:"required,email"  validate:"required,email"  example:"ana@example.com"`
	Address string `json:"address" binding:"required,min=10" validate:"required,min=10" example:"Calle Mayor 12, Madrid"`
}

// ProductSnapshot is the copy of a product frozen into an order.
type ProductSnapshot struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

type Item struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
}

type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Customer   Customer        `json:"customer"`
	Items      []Item          `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Status     Status          `json:"status"`
	PickupTime *string         `json:"pickupTime,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Guest reports whether the order has no owning user.
func (o *Order) Guest() bool { return o.UserID == "" || o.UserID == GuestOwner }

// ItemCount is the sum of quantities.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
