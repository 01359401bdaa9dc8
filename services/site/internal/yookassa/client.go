// Package yookassa is a minimal client for the YooKassa payments API.
package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.yookassa.ru/v3"

// Client creates payments with shop credentials.
type Client struct {
	baseURL    string
	shopID     string
	secretKey  string
	httpClient *http.Client
	newKey     func() string
}

// APIError represents a YooKassa error response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("yookassa: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("yookassa: %d: %s", e.Status, e.Message)
}

// NewClient constructs a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, shopID, secretKey string) (*Client, error) {
	shopID = strings.TrimSpace(shopID)
	secretKey = strings.TrimSpace(secretKey)
	if shopID == "" || secretKey == "" {
		return nil, errors.New("yookassa shop id and secret key are required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		shopID:     shopID,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		newKey:     uuid.NewString,
	}, nil
}

// CreatePaymentRequest is the subset of payment fields the site sends.
type CreatePaymentRequest struct {
	Amount      decimal.Decimal
	Currency    string
	ReturnURL   string
	Description string
	Metadata    map[string]string
}

// Payment is the subset of the payment object the site reads.
type Payment struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	ConfirmationURL string `json:"-"`
}

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type createPaymentBody struct {
	Amount       amount            `json:"amount"`
	Confirmation confirmation      `json:"confirmation"`
	Capture      bool              `json:"capture"`
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type paymentResponse struct {
	ID           string       `json:"id"`
	Status       string       `json:"status"`
	Confirmation confirmation `json:"confirmation"`
}

// CreatePayment creates a captured redirect payment. Each call carries a fresh
// Idempotence-Key.
func (c *Client) CreatePayment(ctx context.Context, in CreatePaymentRequest) (Payment, error) {
	body := createPaymentBody{
		Amount: amount{
			Value:    in.Amount.StringFixed(2),
			Currency: in.Currency,
		},
		Confirmation: confirmation{
			Type:      "redirect",
			ReturnURL: in.ReturnURL,
		},
		Capture:     true,
		Description: in.Description,
		Metadata:    in.Metadata,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Payment{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return Payment{}, err
	}
	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotence-Key", c.newKey())

	var resp paymentResponse
	if err := c.do(req, &resp); err != nil {
		return Payment{}, err
	}
	if resp.ID == "" {
		return Payment{}, errors.New("yookassa: payment response without id")
	}
	if resp.Confirmation.ConfirmationURL == "" {
		return Payment{}, fmt.Errorf("yookassa: payment %s has no confirmation url", resp.ID)
	}
	return Payment{
		ID:              resp.ID,
		Status:          resp.Status,
		ConfirmationURL: resp.Confirmation.ConfirmationURL,
	}, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Description
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Code: strings.TrimSpace(errResp.Code), Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
