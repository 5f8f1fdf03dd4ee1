// internal/integrations/whatsapp.go
package integrations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/franchisehub/supply-backend/internal/config"
)

// WhatsAppSender posts text messages through the Twilio Messages API.
type WhatsAppSender struct {
	cfg     config.WhatsAppConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	baseURL string
}

func NewWhatsAppSender(cfg config.WhatsAppConfig) *WhatsAppSender {
	return &WhatsAppSender{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "twilio-whatsapp",
			Timeout: 30 * time.Second,
		}),
		baseURL: "https://api.twilio.com",
	}
}

func (s *WhatsAppSender) Enabled() bool {
	return s.cfg.Enabled && s.cfg.AccountSID != "" && s.cfg.AuthToken != ""
}

func (s *WhatsAppSender) AdminNumbers() []string {
	return s.cfg.AdminNumbers
}

func (s *WhatsAppSender) Send(ctx context.Context, phone, text string) error {
	if !s.Enabled() {
		return nil
	}

	form := url.Values{}
	form.Set("From", "whatsapp:"+s.cfg.FromNumber)
	form.Set("To", "whatsapp:"+phone)
	form.Set("Body", text)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.cfg.AccountSID)

	_, err := s.breaker.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

		resp, err := s.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return struct{}{}, fmt.Errorf("twilio returned %d: %s", resp.StatusCode, string(raw))
		}
		return struct{}{}, nil
	})

	if err != nil {
		return fmt.Errorf("whatsapp send failed: %w", err)
	}
	return nil
}
