package utils

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testStore(t *testing.T, endpoint string) *FileStore {
	t.Helper()
	fs, err := NewFileStore(StorageConfig{
		Endpoint:       endpoint,
		Region:         "us-east-1",
		Bucket:         "ebook_storage",
		AccessKey:      "AKIDEXAMPLE",
		SecretKey:      "secret",
		ForcePathStyle: true,
	})
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return fs
}

func TestPresignGet(t *testing.T) {
	fs := testStore(t, "https://storage.example.com")

	raw, err := fs.PresignGet("ebook_decision_dynamo.pdf", 300*time.Second)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Host != "storage.example.com" || u.Path != "/ebook_storage/ebook_decision_dynamo.pdf" {
		t.Fatalf("unexpected url %s", raw)
	}
	q := u.Query()
	if q.Get("X-Amz-Expires") != "300" {
		t.Fatalf("expected 300s expiry, got %q", q.Get("X-Amz-Expires"))
	}
	if q.Get("X-Amz-Signature") == "" {
		t.Fatal("url is not signed")
	}
	if !strings.HasPrefix(q.Get("response-content-disposition"), "attachment") {
		t.Fatalf("expected attachment disposition, got %q", q.Get("response-content-disposition"))
	}

	if _, err := fs.PresignGet("", time.Minute); err == nil {
		t.Fatal("empty key must fail")
	}
}

func TestUploadFile(t *testing.T) {
	var gotPath, gotType, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	fs := testStore(t, ts.URL)
	if err := fs.UploadFile(context.Background(), "ebook_decision_dynamo.pdf", []byte("%PDF-1.7"), "application/pdf"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if gotPath != "/ebook_storage/ebook_decision_dynamo.pdf" || gotType != "application/pdf" || gotBody != "%PDF-1.7" {
		t.Fatalf("unexpected upload %s %s %q", gotPath, gotType, gotBody)
	}

	if err := fs.UploadFile(context.Background(), "x.pdf", nil, "application/pdf"); err == nil {
		t.Fatal("empty body must fail")
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("debug"); err != nil {
		t.Fatalf("debug: %v", err)
	}
	if _, err := NewLogger("loud"); err == nil {
		t.Fatal("unknown level must fail")
	}
}
