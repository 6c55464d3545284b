package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dynamoBack/internal/config"
	"dynamoBack/internal/handlers"
	"dynamoBack/internal/repositories"
	"dynamoBack/internal/services"
	"dynamoBack/utils"
)

type application struct {
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client

	purchaseRepo *repositories.PurchaseRepository
	contactRepo  *repositories.ContactRepository

	orderHandler    *handlers.OrderHandler
	downloadHandler *handlers.DownloadHandler
	contactHandler  *handlers.ContactHandler
	adminHandler    *handlers.AdminHandler

	tokenManager *utils.Manager
}

func initializeApp(ctx context.Context, cfg config.Config, db *sql.DB, logger *zap.Logger) (*application, error) {
	dialect := repositories.Dialect(cfg.Database.Driver)
	purchaseRepo := repositories.NewPurchaseRepository(db, dialect)
	contactRepo := repositories.NewContactRepository(db, dialect)

	app := &application{
		logger:       logger,
		db:           db,
		purchaseRepo: purchaseRepo,
		contactRepo:  contactRepo,
	}

	var (
		locker services.Locker
		cache  services.TokenCache
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, running without lock and token cache", zap.Error(err))
			_ = rdb.Close()
		} else {
			app.redis = rdb
			locker = services.NewRedisLocker(rdb, cfg.Redis.LockTTL)
			cache = services.NewRedisTokenCache(rdb)
		}
	}

	if !cfg.GatewayConfigured() {
		logger.Warn("razorpay credentials missing, order creation will fail until RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are set")
	}
	razorpay, err := services.NewRazorpayService(services.RazorpayConfig{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		BaseURL:   cfg.Razorpay.BaseURL,
		Logger:    logger.Named("razorpay"),
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: %w", err)
	}

	var files *utils.FileStore
	if cfg.Storage.Endpoint != "" || cfg.Storage.AccessKey != "" {
		files, err = utils.NewFileStore(utils.StorageConfig{
			Endpoint:       cfg.Storage.Endpoint,
			Region:         cfg.Storage.Region,
			Bucket:         cfg.Storage.Bucket,
			AccessKey:      cfg.Storage.AccessKey,
			SecretKey:      cfg.Storage.SecretKey,
			ForcePathStyle: cfg.Storage.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("file storage: %w", err)
		}
	} else {
		logger.Warn("file storage not configured, download links are disabled")
	}

	orders := services.NewOrderService(razorpay, purchaseRepo, services.OrderConfig{
		Amount:   cfg.Product.Amount,
		Currency: cfg.Product.Currency,
	}, logger.Named("orders"))
	verifier := services.NewVerificationService(purchaseRepo, cfg.Razorpay.KeySecret, cfg.Download.TokenTTL, locker, logger.Named("verify"))

	var presigner services.FilePresigner
	var uploader services.FileUploader
	if files != nil {
		presigner, uploader = files, files
	}
	downloads := services.NewDownloadService(purchaseRepo, cache, presigner, services.DownloadConfig{
		ObjectKey: cfg.Storage.ObjectKey,
		LinkTTL:   cfg.Storage.LinkTTL,
	}, logger.Named("download"))

	var sessions services.SessionIssuer
	if cfg.Admin.JWTSecret != "" {
		m, err := utils.NewManager(cfg.Admin.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("admin tokens: %w", err)
		}
		app.tokenManager = m
		sessions = m
	}
	admin := services.NewAdminService(purchaseRepo, cache, sessions, uploader, services.AdminConfig{
		Username:     cfg.Admin.Username,
		PasswordHash: cfg.Admin.PasswordHash,
		SessionTTL:   cfg.Admin.TokenTTL,
		TokenTTL:     cfg.Download.TokenTTL,
		ObjectKey:    cfg.Storage.ObjectKey,
	}, logger.Named("admin"))

	app.orderHandler = handlers.NewOrderHandler(orders, verifier, cfg.Product.Name, logger)
	app.downloadHandler = handlers.NewDownloadHandler(downloads, cfg.Product.Name, cfg.Server.AllowedOrigins, logger)
	app.contactHandler = handlers.NewContactHandler(services.NewContactService(contactRepo, logger.Named("contact")), logger)
	app.adminHandler = handlers.NewAdminHandler(admin, logger)

	return app, nil
}

func (app *application) close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
}
