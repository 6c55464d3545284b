package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"dynamoBack/internal/download"
	"dynamoBack/internal/models"
)

// FilePresigner issues time-boxed GET URLs for stored objects.
type FilePresigner interface {
	PresignGet(key string, ttl time.Duration) (string, error)
}

type DownloadConfig struct {
	ObjectKey string
	LinkTTL   time.Duration
}

// SignedLink is a direct storage URL for the purchased file.
type SignedLink struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

type DownloadService struct {
	store  PurchaseStore
	cache  TokenCache
	files  FilePresigner
	cfg    DownloadConfig
	logger *zap.Logger

	now func() time.Time
}

func NewDownloadService(store PurchaseStore, cache TokenCache, files FilePresigner, cfg DownloadConfig, logger *zap.Logger) *DownloadService {
	if cache == nil {
		cache = noopTokenCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 300 * time.Second
	}
	return &DownloadService{store: store, cache: cache, files: files, cfg: cfg, logger: logger, now: time.Now}
}

// Now is the clock the gate is resolved against.
func (s *DownloadService) Now() time.Time { return s.now() }

// Lookup resolves the gate for a known token; an expired token gives an expired gate.
// Unknown tokens are a NotFoundError.
func (s *DownloadService) Lookup(ctx context.Context, token string) (*download.Gate, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &models.ValidationError{Msg: "token is required"}
	}

	now := s.now()
	gate := download.NewGate()

	p, hit, err := s.cache.Get(ctx, token)
	if err != nil {
		s.logger.Warn("token cache read failed", zap.Error(err))
	}
	if !hit {
		p, err = s.store.GetByToken(ctx, token)
		if err != nil {
			if errors.Is(err, models.ErrTokenNotFound) || errors.Is(err, models.ErrPurchaseNotFound) {
				return nil, &models.NotFoundError{Resource: "download token", Err: err}
			}
			return nil, &models.StorageError{Op: "lookup download token", Err: err}
		}
		if p.TokenExpiresAt != nil {
			if err := s.cache.Set(ctx, p, p.TokenExpiresAt.Sub(now)); err != nil {
				s.logger.Warn("token cache write failed", zap.Error(err))
			}
		}
	}

	gate.Resolve(p, now)
	return gate, nil
}

// SignedURL issues a storage URL valid for LinkTTL, but only while the token's gate is active.
func (s *DownloadService) SignedURL(ctx context.Context, token string) (*SignedLink, error) {
	gate, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if !gate.CanDownload() {
		return nil, &models.NotFoundError{Resource: "download link"}
	}
	if s.files == nil {
		return nil, &models.ConfigurationError{Msg: "file storage is not configured"}
	}

	u, err := s.files.PresignGet(s.cfg.ObjectKey, s.cfg.LinkTTL)
	if err != nil {
		return nil, &models.StorageError{Op: "presign download", Err: err}
	}
	return &SignedLink{URL: u, ExpiresIn: int(s.cfg.LinkTTL / time.Second)}, nil
}
