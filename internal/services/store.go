package services

import (
	"context"
	"time"

	"dynamoBack/internal/models"
)

// PurchaseStore is the persistence the checkout services need.
type PurchaseStore interface {
	Create(ctx context.Context, p *models.Purchase) error
	GetByID(ctx context.Context, id string) (*models.Purchase, error)
	GetByToken(ctx context.Context, token string) (*models.Purchase, error)
	Complete(ctx context.Context, id string, c models.Completion) error
	ReissueToken(ctx context.Context, id, token string, expiresAt time.Time) error
	List(ctx context.Context, status models.PurchaseStatus, limit int) ([]models.Purchase, error)
	ListStale(ctx context.Context, createdBefore time.Time) ([]models.Purchase, error)
}

// OrderGateway creates orders with the payment provider.
type OrderGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error)
	KeyID() string
	Configured() bool
}
