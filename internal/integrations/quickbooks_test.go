// internal/integrations/quickbooks_test.go
package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/franchisehub/supply-backend/internal/config"
)

func qbConfig(baseURL string) config.QuickBooksConfig {
	return config.QuickBooksConfig{
		Enabled:        true,
		BaseURL:        baseURL,
		RealmID:        "realm-1",
		AccessToken:    "token-1",
		TimeoutSeconds: 5,
		Fallback:       config.FallbackMock,
	}
}

func TestUpsertInvoice(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Invoice": map[string]string{"Id": "1042"},
		})
	}))
	defer server.Close()

	client := NewQuickBooksClient(qbConfig(server.URL))

	invoiceID, err := client.UpsertInvoice(context.Background(), "SO-20250101-ABCD1234", "Joe's Pizza LLC", 149.50, []InvoiceLine{
		{Description: "Napkins", Amount: 149.50, Quantity: 10},
	})

	assert.NoError(t, err)
	assert.Equal(t, "1042", invoiceID)
	assert.Equal(t, "/v3/company/realm-1/invoice", gotPath)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "SO-20250101-ABCD1234", gotBody["DocNumber"])
	assert.Equal(t, "Joe's Pizza LLC", gotBody["CustomerName"])
}

func TestUpsertInvoiceDisabled(t *testing.T) {
	cfg := qbConfig("http://localhost:0")
	cfg.Enabled = false
	client := NewQuickBooksClient(cfg)

	_, err := client.UpsertInvoice(context.Background(), "SO-1", "Acme", 10, nil)
	assert.True(t, errors.Is(err, ErrBillingDisabled))
}

func TestUpsertInvoiceMissingToken(t *testing.T) {
	cfg := qbConfig("http://localhost:0")
	cfg.AccessToken = ""
	client := NewQuickBooksClient(cfg)

	_, err := client.UpsertInvoice(context.Background(), "SO-1", "Acme", 10, nil)
	assert.True(t, errors.Is(err, ErrBillingDisabled))
}

func TestUpsertInvoiceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"Fault":{}}`, http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewQuickBooksClient(qbConfig(server.URL))

	_, err := client.UpsertInvoice(context.Background(), "SO-1", "Acme", 10, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestUpsertInvoiceMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"Invoice": map[string]string{}})
	}))
	defer server.Close()

	client := NewQuickBooksClient(qbConfig(server.URL))

	_, err := client.UpsertInvoice(context.Background(), "SO-1", "Acme", 10, nil)
	assert.Error(t, err)
}
