package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"summarist-billing/internal/domain/billing"
	"summarist-billing/internal/domain/plans"
	"summarist-billing/internal/domain/users"
)

// MemoryStore keeps everything in process. It backs local runs and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]*users.User
	byCustomer map[string]string
	payments   map[string]billing.Payment
	plans      map[string]plans.Plan
	now        func() time.Time
}

type MemoryOption func(*MemoryStore)

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		users:      map[string]*users.User{},
		byCustomer: map[string]string{},
		payments:   map[string]billing.Payment{},
		plans:      map[string]plans.Plan{},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) GetUser(_ context.Context, userID string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) FindByCustomerID(ctx context.Context, customerID string) (*users.User, error) {
	s.mu.RLock()
	userID, ok := s.byCustomer[customerID]
	s.mu.RUnlock()
	if !ok {
		return nil, users.ErrNotFound
	}
	return s.GetUser(ctx, userID)
}

// row must be called with mu held.
func (s *MemoryStore) row(userID string) *users.User {
	u, ok := s.users[userID]
	if !ok {
		now := s.now()
		u = &users.User{ID: userID, Role: users.RoleFree, CreatedAt: now, UpdatedAt: now}
		s.users[userID] = u
	}
	return u
}

func (s *MemoryStore) LinkCustomer(_ context.Context, userID, customerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.byCustomer[customerID]; ok && owner != userID {
		return "", users.ErrCustomerConflict
	}
	u := s.row(userID)
	if cid := u.CustomerID(); cid != "" {
		return cid, nil
	}
	cid := customerID
	u.StripeCustomerID = &cid
	u.UpdatedAt = s.now()
	s.byCustomer[customerID] = userID
	return customerID, nil
}

func (s *MemoryStore) MergeUser(_ context.Context, userID string, patch *users.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.row(userID)
	u.Apply(patch)
	u.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) RecordPayment(_ context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.payments[p.InvoiceID]; ok {
		p.CreatedAt = prev.CreatedAt
	} else {
		p.CreatedAt = s.now()
	}
	s.payments[p.InvoiceID] = p
	return nil
}

func (s *MemoryStore) ListPayments(_ context.Context, userID string) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []billing.Payment
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InvoiceCreatedAt.After(out[j].InvoiceCreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpsertPlan(_ context.Context, p plans.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = s.now()
	s.plans[p.StripePriceID] = p
	return nil
}

func (s *MemoryStore) ListPlans(_ context.Context, productID string) ([]plans.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []plans.Plan
	for _, p := range s.plans {
		if productID == "" || p.StripeProductID == productID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AmountMinor != out[j].AmountMinor {
			return out[i].AmountMinor < out[j].AmountMinor
		}
		return out[i].StripePriceID < out[j].StripePriceID
	})
	return out, nil
}

func (s *MemoryStore) FindByPriceID(_ context.Context, priceID string) (*plans.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[priceID]
	if !ok {
		return nil, plans.ErrNotFound
	}
	return &p, nil
}
