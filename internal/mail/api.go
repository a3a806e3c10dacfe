package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// APISender posts the email to a transactional email HTTP API.
type APISender struct {
	HTTP *http.Client
	URL  string
	Key  string
	From string
}

func NewAPISender(url, key, from string) *APISender {
	return &APISender{
		HTTP: &http.Client{Timeout: 5 * time.Second},
		URL:  url,
		Key:  key,
		From: from,
	}
}

type apiMessage struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Subject string  `json:"subject"`
	HTML    string  `json:"html"`
	Order   Payload `json:"order"`
}

func (s *APISender) Send(ctx context.Context, p Payload) error {
	if p.To == "" {
		return ErrNoRecipient
	}
	html, err := Body(p)
	if err != nil {
		return err
	}
	body, err := json.Marshal(apiMessage{From: s.From, To: p.To, Subject: Subject(p), HTML: html, Order: p})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Key != "" {
		req.Header.Set("Authorization", "Bearer "+s.Key)
	}
	res, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		log.Printf("[mail] api sent to=%s order=%s", p.To, p.OrderID)
		return nil
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return fmt.Errorf("mail api rejected credentials: %s", res.Status)
	default:
		return fmt.Errorf("mail api error: %s", res.Status)
	}
}
