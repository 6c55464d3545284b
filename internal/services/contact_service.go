package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"dynamoBack/internal/models"
)

type ContactStore interface {
	Create(ctx context.Context, s *models.ContactSubmission) error
}

type ContactService struct {
	store  ContactStore
	logger *zap.Logger
}

func NewContactService(store ContactStore, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{store: store, logger: logger}
}

// Submit stores a support message from the storefront.
func (s *ContactService) Submit(ctx context.Context, sub models.ContactSubmission) error {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Message = strings.TrimSpace(sub.Message)

	if sub.Name == "" || sub.Email == "" || sub.Message == "" {
		return &models.ValidationError{Msg: "name, email and message are required"}
	}
	if !strings.Contains(sub.Email, "@") {
		return &models.ValidationError{Msg: "email is invalid"}
	}

	if err := s.store.Create(ctx, &sub); err != nil {
		s.logger.Error("contact submission not stored", zap.Error(err))
		return &models.StorageError{Op: "create contact submission", Err: err}
	}
	s.logger.Info("contact submission received", zap.String("email", sub.Email))
	return nil
}
