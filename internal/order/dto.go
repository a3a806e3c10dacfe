package order

import "github.com/MikeMC777/konki-burger/internal/mail"

// CheckoutRequest payload de checkout.
// swagger:model CheckoutRequest
type CheckoutRequest struct {
	Customer Customer `json:"customer" binding:"required"`
}

// UpdateStatusRequest payload de cambio de estado.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status     Status `json:"status"     binding:"required" example:"Accepted"`
	PickupTime string `json:"pickupTime" example:"13:30"`
}

// StatusResult is the outcome of a status change. The order is always the
// committed one; EmailError reports a failed confirmation without undoing it.
// swagger:model StatusResult
type StatusResult struct {
	Order      *Order `json:"order"`
	EmailSent  bool   `json:"emailSent"`
	EmailError string `json:"emailError,omitempty"`
	Notice     string `json:"notice"`
}

// Summary is the admin dashboard.
// swagger:model Summary
type Summary struct {
	Users    int     `json:"users"`
	Products int     `json:"products"`
	Orders   int     `json:"orders"`
	Pending  int     `json:"pending"`
	Recent   []Order `json:"recent"`
}

// ConfirmationFor builds the email payload of an accepted order.
func ConfirmationFor(o *Order) mail.Payload {
	p := mail.Payload{
		To:      o.Customer.Email,
		Name:    o.Customer.Name,
		OrderID: o.ID,
		Total:   o.Total,
	}
	if o.PickupTime != nil {
		p.PickupTime = *o.PickupTime
	}
	for _, it := range o.Items {
		p.Items = append(p.Items, mail.Line{Name: it.Product.Name, Quantity: it.Quantity, Price: it.Product.Price})
	}
	return p
}
