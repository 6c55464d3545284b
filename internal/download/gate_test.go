package download

import (
	"testing"
	"time"

	"dynamoBack/internal/models"
)

func purchaseExpiringAt(t time.Time, status models.PurchaseStatus) *models.Purchase {
	token := "0b7f3c5e-8e1f-4a53-9d6e-2f0a1c3b4d5e"
	return &models.Purchase{ID: "p1", Status: status, DownloadToken: &token, TokenExpiresAt: &t}
}

func TestGateCountdown47Seconds(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	g := NewGate()
	if g.State() != StateLoading {
		t.Fatalf("expected loading, got %s", g.State())
	}

	if st := g.Resolve(purchaseExpiringAt(now.Add(47*time.Second), models.PurchaseStatusCompleted), now); st != StateActive {
		t.Fatalf("expected active, got %s", st)
	}
	if g.Display() != "0:47" {
		t.Fatalf("expected 0:47, got %s", g.Display())
	}
	if !g.CanDownload() {
		t.Fatal("active gate must offer download")
	}

	for i := 1; i < 47; i++ {
		if st := g.Tick(); st != StateActive {
			t.Fatalf("tick %d: expected active, got %s", i, st)
		}
	}
	if g.Display() != "0:01" {
		t.Fatalf("after 46 ticks expected 0:01, got %s", g.Display())
	}

	if st := g.Tick(); st != StateExpired {
		t.Fatalf("tick 47: expected expired, got %s", st)
	}
	if g.Display() != "0:00" {
		t.Fatalf("expected 0:00 at expiry, got %s", g.Display())
	}
	if g.CanDownload() {
		t.Fatal("expired gate must not offer download")
	}

	// expired is terminal
	g.Tick()
	g.Resolve(purchaseExpiringAt(now.Add(time.Hour), models.PurchaseStatusCompleted), now)
	if g.State() != StateExpired {
		t.Fatalf("expired must be terminal, got %s", g.State())
	}
}

func TestGateResolveExpired(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		p    *models.Purchase
	}{
		{"no purchase", nil},
		{"past expiry completed", purchaseExpiringAt(now.Add(-time.Second), models.PurchaseStatusCompleted)},
		{"past expiry any status", purchaseExpiringAt(now.Add(-time.Minute), models.PurchaseStatusCreated)},
		{"expiry equals now", purchaseExpiringAt(now, models.PurchaseStatusCompleted)},
		{"sub-second left", purchaseExpiringAt(now.Add(500*time.Millisecond), models.PurchaseStatusCompleted)},
		{"no expiry", &models.Purchase{ID: "p1", Status: models.PurchaseStatusCompleted}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate()
			if st := g.Resolve(tt.p, now); st != StateExpired {
				t.Fatalf("expected expired, got %s", st)
			}
			if g.CanDownload() {
				t.Fatal("expired gate must not offer download")
			}
			if g.Purchase() != nil {
				t.Fatal("expired gate must not expose purchase")
			}
		})
	}
}

func TestFormatCountdown(t *testing.T) {
	cases := map[int]string{0: "0:00", 9: "0:09", 47: "0:47", 60: "1:00", 299: "4:59", 300: "5:00", -3: "0:00"}
	for in, want := range cases {
		if got := FormatCountdown(in); got != want {
			t.Errorf("FormatCountdown(%d) = %q, want %q", in, got, want)
		}
	}
}
