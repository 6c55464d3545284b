package models

import "time"

// PurchaseStatus is the payment status of a purchase row.
type PurchaseStatus string

const (
	PurchaseStatusCreated   PurchaseStatus = "created"
	PurchaseStatusCompleted PurchaseStatus = "completed"
)

// Purchase is one checkout attempt and its outcome.
type Purchase struct {
	ID               string         `json:"id"`
	Amount           int64          `json:"amount"`
	Currency         string         `json:"currency"`
	GatewayOrderID   *string        `json:"razorpay_order_id"`
	GatewayPaymentID *string        `json:"razorpay_payment_id"`
	Status           PurchaseStatus `json:"payment_status"`
	DownloadToken    *string        `json:"download_token,omitempty"`
	TokenExpiresAt   *time.Time     `json:"token_expires_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Completion carries the fields written when a payment is verified.
type Completion struct {
	GatewayOrderID   string
	GatewayPaymentID string
	DownloadToken    string
	TokenExpiresAt   time.Time
}

// Redeemable reports whether the purchase holds a download token that is still valid at now.
func (p *Purchase) Redeemable(now time.Time) bool {
	if p == nil || p.Status != PurchaseStatusCompleted {
		return false
	}
	if p.DownloadToken == nil || p.TokenExpiresAt == nil {
		return false
	}
	return p.TokenExpiresAt.After(now)
}

// OrderID returns the stored gateway order id or "".
func (p *Purchase) OrderID() string {
	if p == nil || p.GatewayOrderID == nil {
		return ""
	}
	return *p.GatewayOrderID
}

// PaymentID returns the stored gateway payment id or "".
func (p *Purchase) PaymentID() string {
	if p == nil || p.GatewayPaymentID == nil {
		return ""
	}
	return *p.GatewayPaymentID
}
