package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"dynamoBack/internal/models"
)

// memStore is an in-memory PurchaseStore that counts writes.
type memStore struct {
	mu        sync.Mutex
	purchases map[string]*models.Purchase
	writes    int

	createErr   error
	completeErr []error
	reissueErr  []error
	getErr      error
	// beforeGet and beforeComplete run outside the lock.
	beforeGet      func()
	beforeComplete func()
}

func newMemStore() *memStore {
	return &memStore{purchases: map[string]*models.Purchase{}}
}

func clonePurchase(p *models.Purchase) *models.Purchase {
	cp := *p
	return &cp
}

func (s *memStore) put(p *models.Purchase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases[p.ID] = clonePurchase(p)
}

func (s *memStore) get(id string) *models.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return nil
	}
	return clonePurchase(p)
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *memStore) Create(_ context.Context, p *models.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.writes++
	s.purchases[p.ID] = clonePurchase(p)
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*models.Purchase, error) {
	if s.beforeGet != nil {
		s.beforeGet()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.purchases[id]
	if !ok {
		return nil, models.ErrPurchaseNotFound
	}
	return clonePurchase(p), nil
}

func (s *memStore) GetByToken(_ context.Context, token string) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, p := range s.purchases {
		if p.DownloadToken != nil && *p.DownloadToken == token {
			return clonePurchase(p), nil
		}
	}
	return nil, models.ErrTokenNotFound
}

func (s *memStore) Complete(_ context.Context, id string, c models.Completion) error {
	if s.beforeComplete != nil {
		s.beforeComplete()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.completeErr) > 0 {
		err := s.completeErr[0]
		s.completeErr = s.completeErr[1:]
		if err != nil {
			return err
		}
	}
	p, ok := s.purchases[id]
	if !ok {
		return models.ErrPurchaseNotFound
	}
	if p.Status != models.PurchaseStatusCreated {
		return models.ErrAlreadyCompleted
	}
	s.writes++
	orderID, paymentID, token, exp := c.GatewayOrderID, c.GatewayPaymentID, c.DownloadToken, c.TokenExpiresAt
	p.GatewayOrderID = &orderID
	p.GatewayPaymentID = &paymentID
	p.DownloadToken = &token
	p.TokenExpiresAt = &exp
	p.Status = models.PurchaseStatusCompleted
	return nil
}

func (s *memStore) ReissueToken(_ context.Context, id, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reissueErr) > 0 {
		err := s.reissueErr[0]
		s.reissueErr = s.reissueErr[1:]
		if err != nil {
			return err
		}
	}
	p, ok := s.purchases[id]
	if !ok || p.Status != models.PurchaseStatusCompleted {
		return models.ErrPurchaseNotFound
	}
	s.writes++
	p.DownloadToken = &token
	p.TokenExpiresAt = &expiresAt
	return nil
}

func (s *memStore) List(_ context.Context, status models.PurchaseStatus, limit int) ([]models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Purchase
	for _, p := range s.purchases {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) ListStale(_ context.Context, createdBefore time.Time) ([]models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Purchase
	for _, p := range s.purchases {
		if p.Status == models.PurchaseStatusCreated && p.CreatedAt.Before(createdBefore) {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeGateway struct {
	order      *GatewayOrder
	err        error
	key        string
	configured bool
	calls      int
	gotReceipt string
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	g.calls++
	g.gotReceipt = receipt
	if g.err != nil {
		return nil, g.err
	}
	return g.order, nil
}

func (g *fakeGateway) KeyID() string    { return g.key }
func (g *fakeGateway) Configured() bool { return g.configured }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
