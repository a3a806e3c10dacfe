package mail

import (
	"context"
	"fmt"
	"log"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
)

// SMTPSender sends through an SMTP relay with PLAIN auth (for Gmail, an app
// password).
type SMTPSender struct {
	addr string
	host string
	auth smtp.Auth
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	if from == "" {
		from = user
	}
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		host: host,
		auth: auth,
		from: from,
		send: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, p Payload) error {
	if p.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := buildMessage(s.from, p)
	if err != nil {
		return err
	}
	envelopeFrom := s.from
	if a, err := mail.ParseAddress(s.from); err == nil {
		envelopeFrom = a.Address
	}
	if err := s.send(s.addr, s.auth, envelopeFrom, []string{p.To}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Printf("[mail] smtp sent to=%s order=%s", p.To, p.OrderID)
	return nil
}

func buildMessage(from string, p Payload) ([]byte, error) {
	body, err := Body(p)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + p.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", Subject(p)) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String()), nil
}
