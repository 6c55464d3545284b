package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dynamoBack/internal/models"
)

const maxTokenAttempts = 3

// VerifyRequest is the receipt the widget returns plus our purchase id.
type VerifyRequest struct {
	PaymentID  string `json:"razorpay_payment_id"`
	OrderID    string `json:"razorpay_order_id"`
	Signature  string `json:"razorpay_signature"`
	PurchaseID string `json:"purchase_id"`
}

type VerifyResult struct {
	DownloadToken string
	ExpiresAt     time.Time
}

type VerificationService struct {
	store    PurchaseStore
	secret   string
	tokenTTL time.Duration
	locker   Locker
	logger   *zap.Logger

	now      func() time.Time
	newToken func() string
}

func NewVerificationService(store PurchaseStore, secret string, tokenTTL time.Duration, locker Locker, logger *zap.Logger) *VerificationService {
	if locker == nil {
		locker = noopLocker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = 5 * time.Minute
	}
	return &VerificationService{
		store:    store,
		secret:   secret,
		tokenTTL: tokenTTL,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// Verify checks the gateway signature and, when it holds, completes the purchase
// and mints a download token valid for tokenTTL. Nothing is written on any rejection.
// A purchase already completed with the same payment id returns its current token.
func (s *VerificationService) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.Signature = strings.TrimSpace(req.Signature)
	req.PurchaseID = strings.TrimSpace(req.PurchaseID)

	if req.PaymentID == "" || req.OrderID == "" || req.Signature == "" || req.PurchaseID == "" {
		return nil, &models.ValidationError{Msg: "razorpay_payment_id, razorpay_order_id, razorpay_signature and purchase_id are required"}
	}
	if s.secret == "" {
		return nil, &models.ConfigurationError{Msg: "payment gateway secret is missing"}
	}

	logger := s.logger.With(zap.String("purchase_id", req.PurchaseID), zap.String("order_id", req.OrderID))

	if !VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature, s.secret) {
		logger.Warn("payment signature mismatch")
		return nil, &models.ValidationError{Msg: "invalid payment signature"}
	}

	release, ok, err := s.locker.Acquire(ctx, req.PurchaseID)
	switch {
	case err != nil:
		// a lock outage must not block a paid customer
		logger.Warn("verification lock unavailable", zap.Error(err))
	case !ok:
		return nil, &models.ValidationError{Msg: "verification already in progress for this purchase"}
	default:
		defer release()
	}

	p, err := s.store.GetByID(ctx, req.PurchaseID)
	if err != nil {
		if errors.Is(err, models.ErrPurchaseNotFound) {
			return nil, &models.NotFoundError{Resource: "purchase", Err: err}
		}
		return nil, &models.StorageError{Op: "load purchase", Err: err}
	}

	if stored := p.OrderID(); stored != "" && stored != req.OrderID {
		logger.Warn("order id mismatch", zap.String("stored_order_id", stored))
		return nil, &models.ValidationError{Msg: "order id does not match purchase"}
	}

	if p.Status == models.PurchaseStatusCompleted {
		return alreadyVerified(p, req, logger)
	}

	for attempt := 1; ; attempt++ {
		c := models.Completion{
			GatewayOrderID:   req.OrderID,
			GatewayPaymentID: req.PaymentID,
			DownloadToken:    s.newToken(),
			TokenExpiresAt:   s.now().Add(s.tokenTTL).UTC(),
		}
		err := s.store.Complete(ctx, p.ID, c)
		switch {
		case err == nil:
			logger.Info("payment verified", zap.Time("expires_at", c.TokenExpiresAt))
			return &VerifyResult{DownloadToken: c.DownloadToken, ExpiresAt: c.TokenExpiresAt}, nil
		case errors.Is(err, models.ErrDuplicateToken) && attempt < maxTokenAttempts:
			continue
		case errors.Is(err, models.ErrAlreadyCompleted):
			// another verification completed the row between our read and write
			done, err := s.store.GetByID(ctx, p.ID)
			if err != nil {
				return nil, &models.StorageError{Op: "reload purchase", Err: err}
			}
			return alreadyVerified(done, req, logger)
		case errors.Is(err, models.ErrPurchaseNotFound):
			return nil, &models.NotFoundError{Resource: "purchase", Err: err}
		default:
			logger.Error("payment received but purchase update failed", zap.Error(err))
			return nil, &models.StorageError{Op: "complete purchase", Err: err}
		}
	}
}

// alreadyVerified answers a verification for a completed purchase without writing.
func alreadyVerified(p *models.Purchase, req VerifyRequest, logger *zap.Logger) (*VerifyResult, error) {
	if p.PaymentID() == req.PaymentID && p.DownloadToken != nil && p.TokenExpiresAt != nil {
		logger.Info("purchase already verified")
		return &VerifyResult{DownloadToken: *p.DownloadToken, ExpiresAt: *p.TokenExpiresAt}, nil
	}
	return nil, &models.ValidationError{Msg: "purchase already completed with a different payment"}
}
