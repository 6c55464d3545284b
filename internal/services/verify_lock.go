package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serialises work on one key across server instances.
type Locker interface {
	// Acquire returns ok=false when someone else holds the key.
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// releaseScript deletes the lock only if it still carries our value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX PX lock with a bounded lifetime.
type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, prefix: "verify:lock:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	if l.rdb == nil {
		return func() {}, true, nil
	}
	k := l.prefix + key
	val := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, k, val, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", k, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// the caller's context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.rdb, []string{k}, val).Err()
	}
	return release, true, nil
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}
