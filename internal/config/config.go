package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

const (
	defaultAddress      = ":4001"
	defaultAmount       = 19900 // paise, ₹199
	defaultCurrency     = "INR"
	defaultTokenTTL     = 5 * time.Minute
	defaultLinkTTL      = 300 * time.Second
	defaultObjectKey    = "ebook_decision_dynamo.pdf"
	defaultBucket       = "ebook_storage"
	defaultGatewayURL   = "https://api.razorpay.com"
	defaultAdminTTL     = 12 * time.Hour
	defaultReportEvery  = time.Hour
	defaultReportStale  = 24 * time.Hour
	defaultVerifyLockTT = 30 * time.Second
)

type Config struct {
	Server struct {
		Address        string   `yaml:"address" env:"SERVER_ADDRESS"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver" env:"DB_DRIVER"`
		URL    string `yaml:"url" env:"DATABASE_URL"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
		Password string        `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"REDIS_DB"`
		LockTTL  time.Duration `yaml:"lock_ttl" env:"VERIFY_LOCK_TTL"`
	} `yaml:"redis"`
	Razorpay struct {
		KeyID     string `yaml:"key_id" env:"RAZORPAY_KEY_ID"`
		KeySecret string `yaml:"key_secret" env:"RAZORPAY_KEY_SECRET"`
		BaseURL   string `yaml:"base_url" env:"RAZORPAY_BASE_URL"`
	} `yaml:"razorpay"`
	Product struct {
		Name        string `yaml:"name" env:"PRODUCT_NAME"`
		Description string `yaml:"description" env:"PRODUCT_DESCRIPTION"`
		Amount      int64  `yaml:"amount" env:"PRODUCT_AMOUNT"`
		Currency    string `yaml:"currency" env:"PRODUCT_CURRENCY"`
	} `yaml:"product"`
	Storage struct {
		Endpoint       string        `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
		Region         string        `yaml:"region" env:"STORAGE_REGION"`
		Bucket         string        `yaml:"bucket" env:"STORAGE_BUCKET"`
		AccessKey      string        `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
		SecretKey      string        `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
		ObjectKey      string        `yaml:"object_key" env:"STORAGE_OBJECT_KEY"`
		ForcePathStyle bool          `yaml:"force_path_style" env:"STORAGE_FORCE_PATH_STYLE"`
		LinkTTL        time.Duration `yaml:"link_ttl" env:"STORAGE_LINK_TTL"`
	} `yaml:"storage"`
	Download struct {
		TokenTTL time.Duration `yaml:"token_ttl" env:"DOWNLOAD_TOKEN_TTL"`
	} `yaml:"download"`
	Admin struct {
		Username     string        `yaml:"username" env:"ADMIN_USERNAME"`
		PasswordHash string        `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
		JWTSecret    string        `yaml:"jwt_secret" env:"ADMIN_JWT_SECRET"`
		TokenTTL     time.Duration `yaml:"token_ttl" env:"ADMIN_TOKEN_TTL"`
	} `yaml:"admin"`
	Reporter struct {
		Interval   time.Duration `yaml:"interval" env:"STALE_REPORT_INTERVAL"`
		StaleAfter time.Duration `yaml:"stale_after" env:"STALE_REPORT_AFTER"`
	} `yaml:"reporter"`
	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`
}

// Default returns a config with the values the shop runs with when nothing is set.
func Default() Config {
	var cfg Config
	cfg.Server.Address = defaultAddress
	cfg.Database.Driver = "pgx"
	cfg.Redis.LockTTL = defaultVerifyLockTT
	cfg.Razorpay.BaseURL = defaultGatewayURL
	cfg.Product.Name = "Decision Dynamo"
	cfg.Product.Description = "Premium eBook Purchase"
	cfg.Product.Amount = defaultAmount
	cfg.Product.Currency = defaultCurrency
	cfg.Storage.Region = "us-east-1"
	cfg.Storage.Bucket = defaultBucket
	cfg.Storage.ObjectKey = defaultObjectKey
	cfg.Storage.LinkTTL = defaultLinkTTL
	cfg.Download.TokenTTL = defaultTokenTTL
	cfg.Admin.Username = "admin"
	cfg.Admin.TokenTTL = defaultAdminTTL
	cfg.Reporter.Interval = defaultReportEvery
	cfg.Reporter.StaleAfter = defaultReportStale
	cfg.Log.Level = "info"
	return cfg
}

// Load layers the optional YAML file at path and then the environment over Default.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config data: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that make the server unusable when wrong.
// Missing gateway credentials are not fatal here: order creation reports them per request.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "pgx", "mysql":
	default:
		return fmt.Errorf("database driver %q is not supported (pgx, mysql)", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Product.Amount <= 0 {
		return errors.New("product amount must be positive")
	}
	if strings.TrimSpace(c.Product.Currency) == "" {
		return errors.New("product currency is required")
	}
	if c.Download.TokenTTL <= 0 || c.Storage.LinkTTL <= 0 {
		return errors.New("download token ttl and storage link ttl must be positive")
	}
	if c.Admin.PasswordHash != "" && c.Admin.JWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	return nil
}

// GatewayConfigured reports whether both gateway credentials are present.
func (c *Config) GatewayConfigured() bool {
	return c.Razorpay.KeyID != "" && c.Razorpay.KeySecret != ""
}
