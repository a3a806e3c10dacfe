// Package mail sends the order confirmation email. The transport is chosen
// by configuration: a log-only simulation, SMTP, or a transactional email API.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/konki-burger/internal/config"
)

// NoPickupTime is shown when an accepted order carries no pickup time.
const NoPickupTime = "No especificada"

type Line struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Payload struct {
	To         string          `json:"to"`
	Name       string          `json:"name"`
	OrderID    string          `json:"orderId"`
	PickupTime string          `json:"pickupTime"`
	Total      decimal.Decimal `json:"total"`
	Items      []Line          `json:"items"`
}

// Sender delivers one confirmation email.
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

var ErrNoRecipient = errors.New("mail: missing recipient")

func Subject(p Payload) string {
	return fmt.Sprintf("¡Tu pedido #%s de Konki Burger está confirmado!", p.OrderID)
}

var confirmation = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).Parse(`<h1>¡Pedido Confirmado!</h1>
<p>Hola {{.Name}},</p>
<p>¡Buenas noticias! Tu pedido <strong>#{{.OrderID}}</strong> ha sido aceptado y estará listo para recoger a las <strong>{{.PickupTime}}</strong>.</p>
<h3>Resumen del pedido:</h3>
<ul>
{{- range .Items}}
  <li>{{.Quantity}}x {{.Name}} - ${{money .Subtotal}}</li>
{{- end}}
</ul>
<h3>Total: ${{money .Total}}</h3>
<p>¡Gracias por tu pedido!</p>
<p>El equipo de Konki Burger</p>
`))

// Body renders the HTML body of the confirmation email.
func Body(p Payload) (string, error) {
	if p.PickupTime == "" {
		p.PickupTime = NoPickupTime
	}
	var buf bytes.Buffer
	if err := confirmation.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FromConfig picks the sender for cfg.Driver. Unknown drivers fall back to
// the log sender.
func FromConfig(cfg config.MailConfig) Sender {
	switch cfg.Driver {
	case "smtp":
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From)
	case "api":
		return NewAPISender(cfg.APIURL, cfg.APIKey, cfg.From)
	case "log", "":
	default:
		log.Printf("[mail] unknown driver %q, using log", cfg.Driver)
	}
	return LogSender{}
}

// LogSender only logs the email. It is the simulation mode.
type LogSender struct{}

func (LogSender) Send(_ context.Context, p Payload) error {
	if p.To == "" {
		return ErrNoRecipient
	}
	log.Printf("[mail] simulated to=%s order=%s pickup=%s total=%s items=%d",
		p.To, p.OrderID, p.PickupTime, p.Total.StringFixed(2), len(p.Items))
	return nil
}
