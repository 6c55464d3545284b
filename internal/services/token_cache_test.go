package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"dynamoBack/internal/models"
)

func TestRedisTokenCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := NewRedisTokenCache(rdb)
	ctx := context.Background()

	if _, hit, err := cache.Get(ctx, "tok"); err != nil || hit {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}

	p := &models.Purchase{
		ID:             "p1",
		Status:         models.PurchaseStatusCompleted,
		DownloadToken:  strPtr("tok"),
		TokenExpiresAt: timePtr(fixedNow.Add(5 * time.Minute)),
	}
	if err := cache.Set(ctx, p, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("download:token:tok"); ttl != time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	got, hit, err := cache.Get(ctx, "tok")
	if err != nil || !hit {
		t.Fatalf("get: hit=%v err=%v", hit, err)
	}
	if got.ID != "p1" || !got.TokenExpiresAt.Equal(*p.TokenExpiresAt) {
		t.Fatalf("unexpected cached purchase %+v", got)
	}

	if err := cache.Delete(ctx, "tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("download:token:tok") {
		t.Fatal("key must be gone")
	}

	// expired links are never cached
	if err := cache.Set(ctx, p, -time.Second); err != nil {
		t.Fatalf("set expired: %v", err)
	}
	if mr.Exists("download:token:tok") {
		t.Fatal("non-positive ttl must not be cached")
	}
}

func TestRedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	l := NewRedisLocker(rdb, 30*time.Second)
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := l.Acquire(ctx, "p1"); ok {
		t.Fatal("second acquire must fail while held")
	}
	if _, ok, _ := l.Acquire(ctx, "p2"); !ok {
		t.Fatal("other keys are independent")
	}

	mr.FastForward(31 * time.Second)
	release2, ok, err := l.Acquire(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("acquire after ttl: ok=%v err=%v", ok, err)
	}

	// a stale release must not drop the new holder's lock
	release()
	if !mr.Exists("verify:lock:p1") {
		t.Fatal("stale release removed a foreign lock")
	}
	release2()
	if mr.Exists("verify:lock:p1") {
		t.Fatal("release must delete own lock")
	}
}
