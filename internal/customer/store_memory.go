package customer

import (
	"context"
	"sync"

	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	customers map[id.NationalCode]Customer
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{customers: make(map[id.NationalCode]Customer)}
}

func (s *InMemoryStore) Ensure(_ context.Context, candidate Customer) (Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.customers[candidate.NationalCode]; ok {
		return existing, nil
	}
	s.customers[candidate.NationalCode] = candidate
	return candidate, nil
}

func (s *InMemoryStore) FindByNationalCode(_ context.Context, code id.NationalCode) (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[code]
	if !ok {
		return Customer{}, sentinel.ErrNotFound
	}
	return c, nil
}
