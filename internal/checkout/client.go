// Package checkout drives a purchase from the storefront: it loads the hosted
// payment widget, creates the order, waits for the widget and verifies the payment.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Order is the create-order response.
type Order struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Key        string `json:"key"`
	PurchaseID string `json:"purchase_id"`
}

// Receipt is what the widget hands back after a successful payment.
type Receipt struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

type Verification struct {
	Success       bool      `json:"success"`
	DownloadToken string    `json:"download_token"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// APIError is a non-2xx answer from the checkout functions.
type APIError struct {
	StatusCode int
	Title      string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Message)
	}
	if e.Title != "" {
		return e.Title
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// API is the server side of a purchase.
type API interface {
	CreateOrder(ctx context.Context) (*Order, error)
	VerifyPayment(ctx context.Context, r Receipt, purchaseID string) (*Verification, error)
}

// Client calls the checkout functions over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) CreateOrder(ctx context.Context) (*Order, error) {
	var out Order
	if err := c.post(ctx, "/functions/v1/create-order", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyPayment(ctx context.Context, r Receipt, purchaseID string) (*Verification, error) {
	body := map[string]string{
		"razorpay_payment_id": r.PaymentID,
		"razorpay_order_id":   r.OrderID,
		"razorpay_signature":  r.Signature,
		"purchase_id":         purchaseID,
	}
	var out Verification
	if err := c.post(ctx, "/functions/v1/verify-payment", body, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.DownloadToken == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Title: "Verification failed", Message: "no download token returned"}
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
