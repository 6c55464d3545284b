package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"dynamoBack/internal/models"
	"dynamoBack/internal/services"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context) (*services.OrderResult, error)
	Pricing(name string) services.Price
}

type PaymentVerifier interface {
	Verify(ctx context.Context, req services.VerifyRequest) (*services.VerifyResult, error)
}

type OrderHandler struct {
	Orders      OrderCreator
	Verifier    PaymentVerifier
	ProductName string
	Logger      *zap.Logger
}

func NewOrderHandler(orders OrderCreator, verifier PaymentVerifier, productName string, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{Orders: orders, Verifier: verifier, ProductName: productName, Logger: logger}
}

// CreateOrder takes no body; price and currency are fixed server-side.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	res, err := h.Orders.CreateOrder(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type verifyResponse struct {
	Success       bool      `json:"success"`
	DownloadToken string    `json:"download_token"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req services.VerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, h.Logger, &models.ValidationError{Msg: "request body must be JSON"})
		return
	}

	res, err := h.Verifier.Verify(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Success: true, DownloadToken: res.DownloadToken, ExpiresAt: res.ExpiresAt})
}

func (h *OrderHandler) Pricing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Orders.Pricing(h.ProductName))
}

// Preflight answers CORS OPTIONS requests that reach the router.
func Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
