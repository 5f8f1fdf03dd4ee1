// internal/integrations/push.go
package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/franchisehub/supply-backend/internal/config"
)

// PushSender delivers device push notifications through the FCM HTTP API.
// Calls carry a bounded timeout and run behind a circuit breaker so a
// degraded push backend cannot stall order processing.
type PushSender struct {
	cfg     config.PushConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	ClickAction string `json:"click_action,omitempty"`
}

func NewPushSender(cfg config.PushConfig) *PushSender {
	return &PushSender{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "fcm",
			Timeout: 30 * time.Second,
		}),
	}
}

func (s *PushSender) Enabled() bool {
	return s.cfg.Enabled && s.cfg.FCMServerKey != ""
}

func (s *PushSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if !s.Enabled() {
		return nil
	}

	payload, err := json.Marshal(fcmMessage{
		To: token,
		Notification: fcmNotification{
			Title:       title,
			Body:        body,
			ClickAction: data["click_action"],
		},
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	_, err = s.breaker.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.FCMEndpoint, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "key="+s.cfg.FCMServerKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return struct{}{}, fmt.Errorf("fcm returned %d: %s", resp.StatusCode, string(raw))
		}
		return struct{}{}, nil
	})

	if err != nil {
		return fmt.Errorf("push send failed: %w", err)
	}
	return nil
}
