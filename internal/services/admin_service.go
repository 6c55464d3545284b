package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"dynamoBack/internal/models"
)

type SessionIssuer interface {
	NewJWT(subject string, ttl time.Duration) (string, time.Time, error)
}

// FileUploader stores the eBook object.
type FileUploader interface {
	UploadFile(ctx context.Context, key string, file []byte, contentType string) error
}

type AdminConfig struct {
	Username     string
	PasswordHash string
	SessionTTL   time.Duration
	TokenTTL     time.Duration
	ObjectKey    string
}

type AdminSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminService backs the support desk.
type AdminService struct {
	store    PurchaseStore
	cache    TokenCache
	sessions SessionIssuer
	files    FileUploader
	cfg      AdminConfig
	logger   *zap.Logger

	now      func() time.Time
	newToken func() string
}

func NewAdminService(store PurchaseStore, cache TokenCache, sessions SessionIssuer, files FileUploader, cfg AdminConfig, logger *zap.Logger) *AdminService {
	if cache == nil {
		cache = noopTokenCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 5 * time.Minute
	}
	return &AdminService{
		store:    store,
		cache:    cache,
		sessions: sessions,
		files:    files,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

func (s *AdminService) SignIn(username, password string) (*AdminSession, error) {
	if s.cfg.PasswordHash == "" || s.sessions == nil {
		return nil, &models.ConfigurationError{Msg: "admin access is not configured"}
	}
	if strings.TrimSpace(username) != s.cfg.Username {
		return nil, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("admin sign in failed", zap.String("username", username))
		return nil, models.ErrInvalidCredentials
	}

	token, exp, err := s.sessions.NewJWT(s.cfg.Username, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	return &AdminSession{Token: token, ExpiresAt: exp}, nil
}

func (s *AdminService) ListPurchases(ctx context.Context, status string, limit int) ([]models.Purchase, error) {
	st := models.PurchaseStatus(strings.TrimSpace(status))
	switch st {
	case "", models.PurchaseStatusCreated, models.PurchaseStatusCompleted:
	default:
		return nil, &models.ValidationError{Msg: "status must be created or completed"}
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	list, err := s.store.List(ctx, st, limit)
	if err != nil {
		return nil, &models.StorageError{Op: "list purchases", Err: err}
	}
	return list, nil
}

// Reissue gives a completed purchase a fresh token. The previous token stops working.
func (s *AdminService) Reissue(ctx context.Context, purchaseID string) (*VerifyResult, error) {
	p, err := s.store.GetByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, models.ErrPurchaseNotFound) {
			return nil, &models.NotFoundError{Resource: "purchase", Err: err}
		}
		return nil, &models.StorageError{Op: "load purchase", Err: err}
	}
	if p.Status != models.PurchaseStatusCompleted {
		return nil, &models.ValidationError{Msg: "only completed purchases can be reissued"}
	}

	var (
		token     string
		expiresAt time.Time
	)
	for attempt := 1; ; attempt++ {
		token = s.newToken()
		expiresAt = s.now().Add(s.cfg.TokenTTL).UTC()
		err := s.store.ReissueToken(ctx, p.ID, token, expiresAt)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, models.ErrDuplicateToken) && attempt < maxTokenAttempts:
			continue
		case errors.Is(err, models.ErrPurchaseNotFound):
			return nil, &models.NotFoundError{Resource: "purchase", Err: err}
		default:
			return nil, &models.StorageError{Op: "reissue token", Err: err}
		}
	}
	if p.DownloadToken != nil {
		if err := s.cache.Delete(ctx, *p.DownloadToken); err != nil {
			s.logger.Warn("token cache delete failed", zap.Error(err))
		}
	}
	s.logger.Info("download token reissued", zap.String("purchase_id", p.ID))
	return &VerifyResult{DownloadToken: token, ExpiresAt: expiresAt}, nil
}

func (s *AdminService) UploadEbook(ctx context.Context, file []byte) error {
	if s.files == nil {
		return &models.ConfigurationError{Msg: "file storage is not configured"}
	}
	if len(file) < 5 || string(file[:5]) != "%PDF-" {
		return &models.ValidationError{Msg: "file must be a PDF"}
	}
	if err := s.files.UploadFile(ctx, s.cfg.ObjectKey, file, "application/pdf"); err != nil {
		return &models.StorageError{Op: "upload ebook", Err: err}
	}
	return nil
}
