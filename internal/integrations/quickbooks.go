// internal/integrations/quickbooks.go
package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/franchisehub/supply-backend/internal/config"
)

// ErrBillingDisabled is returned when the QuickBooks integration is turned
// off; the caller decides whether to substitute a fallback invoice id.
var ErrBillingDisabled = errors.New("billing integration disabled")

// QuickBooksClient syncs customers and invoices with QuickBooks Online.
// Requests never run while database locks are held and always carry a
// bounded timeout.
type QuickBooksClient struct {
	cfg     config.QuickBooksConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
}

type qbInvoiceLine struct {
	Description string  `json:"Description"`
	Amount      float64 `json:"Amount"`
	Quantity    int     `json:"Qty"`
}

type qbInvoiceRequest struct {
	DocNumber    string          `json:"DocNumber"`
	CustomerName string          `json:"CustomerName"`
	TotalAmount  float64         `json:"TotalAmt"`
	Lines        []qbInvoiceLine `json:"Line"`
}

type qbInvoiceResponse struct {
	Invoice struct {
		ID string `json:"Id"`
	} `json:"Invoice"`
}

func NewQuickBooksClient(cfg config.QuickBooksConfig) *QuickBooksClient {
	return &QuickBooksClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:    "quickbooks",
			Timeout: 60 * time.Second,
		}),
	}
}

func (c *QuickBooksClient) Enabled() bool {
	return c.cfg.Enabled && c.cfg.AccessToken != ""
}

func (c *QuickBooksClient) Fallback() config.FallbackBehavior {
	return c.cfg.Fallback
}

// UpsertInvoice creates or updates the invoice for an order and returns
// the external invoice id.
func (c *QuickBooksClient) UpsertInvoice(ctx context.Context, orderNumber, customerName string, total float64, lines []InvoiceLine) (string, error) {
	if !c.Enabled() {
		return "", ErrBillingDisabled
	}

	reqBody := qbInvoiceRequest{
		DocNumber:    orderNumber,
		CustomerName: customerName,
		TotalAmount:  total,
	}
	for _, l := range lines {
		reqBody.Lines = append(reqBody.Lines, qbInvoiceLine{
			Description: l.Description,
			Amount:      l.Amount,
			Quantity:    l.Quantity,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode invoice: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v3/company/%s/invoice", c.cfg.BaseURL, c.cfg.RealmID)

	return c.breaker.Execute(func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

		resp, err := c.client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return "", fmt.Errorf("quickbooks returned %d: %s", resp.StatusCode, string(raw))
		}

		var parsed qbInvoiceResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return "", fmt.Errorf("failed to decode invoice response: %w", err)
		}
		if parsed.Invoice.ID == "" {
			return "", errors.New("quickbooks response missing invoice id")
		}
		return parsed.Invoice.ID, nil
	})
}

// InvoiceLine is the transport-neutral invoice line passed in by callers.
type InvoiceLine struct {
	Description string
	Amount      float64
	Quantity    int
}
