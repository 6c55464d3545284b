package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"dynamoBack/internal/models"
)

type RazorpayConfig struct {
	KeyID     string
	KeySecret string

	// Example: https://api.razorpay.com
	BaseURL string

	Client *http.Client
	Logger *zap.Logger
}

// RazorpayService talks to the gateway's Orders API.
type RazorpayService struct {
	keyID      string
	keySecret  string
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

func NewRazorpayService(cfg RazorpayConfig) (*RazorpayService, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = "https://api.razorpay.com"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	s := &RazorpayService{
		keyID:      strings.TrimSpace(cfg.KeyID),
		keySecret:  strings.TrimSpace(cfg.KeySecret),
		baseURL:    u,
		httpClient: client,
		logger:     logger,
	}
	logger.Info("razorpay initialized",
		zap.String("baseURL", safeURL(s.baseURL)),
		zap.Bool("key_id_set", s.keyID != ""),
		zap.Bool("key_secret_set", s.keySecret != ""),
	)
	return s, nil
}

// KeyID is the public key identifier handed to the browser widget.
func (s *RazorpayService) KeyID() string { return s.keyID }

// Configured reports whether both credentials are present.
func (s *RazorpayService) Configured() bool {
	return s.keyID != "" && s.keySecret != ""
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// GatewayOrder is the part of the gateway's order entity we use.
type GatewayOrder struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder registers an order for amount (minor units) with the gateway.
func (s *RazorpayService) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	if !s.Configured() {
		return nil, &models.ConfigurationError{Msg: "razorpay key id/secret are not set"}
	}
	logger := s.logger.With(zap.String("op", "CreateOrder"))

	endpoint := *s.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/v1/orders")

	body, err := json.Marshal(createOrderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.SetBasicAuth(s.keyID, s.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Status: "request failed", Description: err.Error()}
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	logger.Debug("orders raw", zap.String("status", resp.Status), zap.String("body", trim(string(b), 2000)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newGatewayError(resp.StatusCode, resp.Status, b)
	}

	var out GatewayOrder
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Status: resp.Status, Description: "empty order id"}
	}
	logger.Info("order created", zap.String("order_id", out.ID), zap.Int64("amount", out.Amount))
	return &out, nil
}

// ---------- helpers ----------

func trim(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

func safeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.User = nil
	return c.String()
}

// GatewayError is a rejected or failed call to the payment gateway.
type GatewayError struct {
	StatusCode  int
	Status      string
	Description string
	Body        string
}

func newGatewayError(code int, status string, body []byte) *GatewayError {
	var payload struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	desc := "Unknown error"
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error.Description) != "" {
		desc = payload.Error.Description
	}
	return &GatewayError{StatusCode: code, Status: status, Description: desc, Body: string(body)}
}

func (e *GatewayError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Razorpay API error: %s", e.Description)
}
