package yookassa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestCreatePaymentSendsExpectedRequest(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/payments" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "shop-1" || pass != "secret-1" {
			t.Errorf("unexpected basic auth: %q %q %v", user, pass, ok)
		}
		if got := r.Header.Get("Idempotence-Key"); got != "key-1" {
			t.Errorf("idempotence key = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"2d5c-000f","status":"pending","confirmation":{"type":"redirect","confirmation_url":"https://yoomoney.ru/checkout/payments/v2/contract?orderId=2d5c"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", "shop-1", "secret-1")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.newKey = func() string { return "key-1" }

	p, err := c.CreatePayment(context.Background(), CreatePaymentRequest{
		Amount:      decimal.RequireFromString("4990"),
		Currency:    "RUB",
		ReturnURL:   "https://site.example/payment-success",
		Description: "Курс",
		Metadata:    map[string]string{"name": "Иван", "email": "ivan@example.com", "phone": ""},
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if p.ID != "2d5c-000f" || p.ConfirmationURL == "" {
		t.Fatalf("unexpected payment: %+v", p)
	}

	want := map[string]any{
		"amount":       map[string]any{"value": "4990.00", "currency": "RUB"},
		"confirmation": map[string]any{"type": "redirect", "return_url": "https://site.example/payment-success"},
		"capture":      true,
		"description":  "Курс",
		"metadata":     map[string]any{"name": "Иван", "email": "ivan@example.com", "phone": ""},
	}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestCreatePaymentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","code":"invalid_credentials","description":"Authentication by given credentials failed"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "shop", "bad")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.CreatePayment(context.Background(), CreatePaymentRequest{Amount: decimal.NewFromInt(1), Currency: "RUB"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != "invalid_credentials" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestCreatePaymentRequiresConfirmationURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p1","status":"pending"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "shop", "secret")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.CreatePayment(context.Background(), CreatePaymentRequest{Amount: decimal.NewFromInt(1), Currency: "RUB"}); err == nil {
		t.Fatalf("expected error when confirmation url is missing")
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "", "secret"); err == nil {
		t.Fatalf("expected error for missing shop id")
	}
	c, err := NewClient("", "shop", "secret")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.baseURL != DefaultBaseURL {
		t.Fatalf("base url = %q", c.baseURL)
	}
}
