package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"dynamoBack/internal/download"
	"dynamoBack/internal/models"
)

type fakePresigner struct {
	key   string
	ttl   time.Duration
	calls int
	err   error
}

func (f *fakePresigner) PresignGet(key string, ttl time.Duration) (string, error) {
	f.calls++
	f.key, f.ttl = key, ttl
	if f.err != nil {
		return "", f.err
	}
	return "https://storage.example/ebook_storage/" + key + "?X-Amz-Expires=300", nil
}

func seedCompleted(store *memStore, token string, expiresAt time.Time) {
	store.put(&models.Purchase{
		ID:               "p1",
		Amount:           19900,
		Currency:         "INR",
		GatewayOrderID:   strPtr("order_abc"),
		GatewayPaymentID: strPtr("pay_1"),
		Status:           models.PurchaseStatusCompleted,
		DownloadToken:    strPtr(token),
		TokenExpiresAt:   timePtr(expiresAt),
	})
}

func newTestDownloads(store *memStore, cache TokenCache, files FilePresigner) *DownloadService {
	s := NewDownloadService(store, cache, files, DownloadConfig{ObjectKey: "ebook_decision_dynamo.pdf", LinkTTL: 300 * time.Second}, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestDownloadLookup(t *testing.T) {
	store := newMemStore()
	seedCompleted(store, "live", fixedNow.Add(47*time.Second))
	s := newTestDownloads(store, nil, nil)

	gate, err := s.Lookup(context.Background(), "live")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if gate.State() != download.StateActive || gate.Display() != "0:47" {
		t.Fatalf("unexpected gate %s %s", gate.State(), gate.Display())
	}

	_, err = s.Lookup(context.Background(), "unknown")
	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("unknown token must be NotFoundError, got %v", err)
	}

	if _, err := s.Lookup(context.Background(), " "); err == nil {
		t.Fatal("empty token must be rejected")
	}
}

func TestDownloadLookup_ExpiredToken(t *testing.T) {
	store := newMemStore()
	seedCompleted(store, "old", fixedNow.Add(-time.Minute))
	files := &fakePresigner{}
	s := newTestDownloads(store, nil, files)

	gate, err := s.Lookup(context.Background(), "old")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if gate.State() != download.StateExpired {
		t.Fatalf("expected expired, got %s", gate.State())
	}

	_, err = s.SignedURL(context.Background(), "old")
	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if files.calls != 0 {
		t.Fatal("no URL may be signed for an expired token")
	}
}

func TestDownloadSignedURL(t *testing.T) {
	store := newMemStore()
	seedCompleted(store, "live", fixedNow.Add(2*time.Minute))
	files := &fakePresigner{}
	s := newTestDownloads(store, nil, files)

	link, err := s.SignedURL(context.Background(), "live")
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	if files.key != "ebook_decision_dynamo.pdf" || files.ttl != 300*time.Second {
		t.Fatalf("unexpected presign args %q %v", files.key, files.ttl)
	}
	if link.ExpiresIn != 300 || link.URL == "" {
		t.Fatalf("unexpected link %+v", link)
	}

	files.err = errors.New("bucket missing")
	_, err = s.SignedURL(context.Background(), "live")
	var se *models.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}

	noFiles := newTestDownloads(store, nil, nil)
	_, err = noFiles.SignedURL(context.Background(), "live")
	var ce *models.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestDownloadLookup_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := newMemStore()
	seedCompleted(store, "live", fixedNow.Add(time.Minute))
	s := newTestDownloads(store, NewRedisTokenCache(rdb), nil)

	if _, err := s.Lookup(context.Background(), "live"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ttl := mr.TTL("download:token:live"); ttl != time.Minute {
		t.Fatalf("cache ttl should match remaining validity, got %v", ttl)
	}

	// cached copy answers while the database is down
	store.getErr = errors.New("database down")
	gate, err := s.Lookup(context.Background(), "live")
	if err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if gate.State() != download.StateActive {
		t.Fatalf("expected active, got %s", gate.State())
	}
}
