package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dynamoBack/internal/models"
)

// TokenCache keeps token lookups off the database while a link is live.
type TokenCache interface {
	Get(ctx context.Context, token string) (*models.Purchase, bool, error)
	Set(ctx context.Context, p *models.Purchase, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

type RedisTokenCache struct {
	rdb *redis.Client
}

func NewRedisTokenCache(rdb *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{rdb: rdb}
}

func tokenKey(token string) string {
	return fmt.Sprintf("download:token:%s", token)
}

func (c *RedisTokenCache) Get(ctx context.Context, token string) (*models.Purchase, bool, error) {
	raw, err := c.rdb.Get(ctx, tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get token cache: %w", err)
	}
	var p models.Purchase
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("decode token cache: %w", err)
	}
	return &p, true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, p *models.Purchase, ttl time.Duration) error {
	if p == nil || p.DownloadToken == nil || ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode token cache: %w", err)
	}
	if err := c.rdb.Set(ctx, tokenKey(*p.DownloadToken), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set token cache: %w", err)
	}
	return nil
}

func (c *RedisTokenCache) Delete(ctx context.Context, token string) error {
	if err := c.rdb.Del(ctx, tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("delete token cache: %w", err)
	}
	return nil
}

type noopTokenCache struct{}

func (noopTokenCache) Get(context.Context, string) (*models.Purchase, bool, error) {
	return nil, false, nil
}
func (noopTokenCache) Set(context.Context, *models.Purchase, time.Duration) error { return nil }
func (noopTokenCache) Delete(context.Context, string) error                       { return nil }
