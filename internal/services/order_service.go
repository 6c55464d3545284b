package services

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dynamoBack/internal/models"
)

type OrderConfig struct {
	Amount   int64
	Currency string
}

// OrderResult is what the browser needs to open the hosted payment widget.
type OrderResult struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Key        string `json:"key"`
	PurchaseID string `json:"purchase_id"`
}

type OrderService struct {
	gateway OrderGateway
	store   PurchaseStore
	cfg     OrderConfig
	logger  *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewOrderService(gateway OrderGateway, store PurchaseStore, cfg OrderConfig, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		gateway: gateway,
		store:   store,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// CreateOrder registers a fixed-price order with the gateway and records a pending purchase.
// There is no compensation when the insert fails: the gateway order stays orphaned.
func (s *OrderService) CreateOrder(ctx context.Context) (*OrderResult, error) {
	if s.gateway == nil || !s.gateway.Configured() {
		return nil, &models.ConfigurationError{Msg: "payment gateway credentials are missing"}
	}

	receipt := "receipt_" + strconv.FormatInt(s.now().UnixMilli(), 10)
	s.logger.Info("creating order",
		zap.Int64("amount", s.cfg.Amount),
		zap.String("currency", s.cfg.Currency),
		zap.String("receipt", receipt))

	order, err := s.gateway.CreateOrder(ctx, s.cfg.Amount, s.cfg.Currency, receipt)
	if err != nil {
		return nil, err
	}

	orderID := order.ID
	p := &models.Purchase{
		ID:             s.newID(),
		Amount:         order.Amount,
		Currency:       order.Currency,
		GatewayOrderID: &orderID,
		Status:         models.PurchaseStatusCreated,
		CreatedAt:      s.now().UTC(),
	}
	if p.Amount == 0 {
		p.Amount = s.cfg.Amount
	}
	if p.Currency == "" {
		p.Currency = s.cfg.Currency
	}

	if err := s.store.Create(ctx, p); err != nil {
		s.logger.Error("purchase insert failed, gateway order orphaned",
			zap.String("order_id", order.ID), zap.Error(err))
		return nil, &models.StorageError{Op: "create purchase", Err: err}
	}

	return &OrderResult{
		ID:         order.ID,
		Amount:     p.Amount,
		Currency:   p.Currency,
		Key:        s.gateway.KeyID(),
		PurchaseID: p.ID,
	}, nil
}
