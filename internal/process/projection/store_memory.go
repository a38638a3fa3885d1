package projection

import (
	"context"
	"slices"
	"sync"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	processes map[id.ProcessID]Process
	// order of first insert, used to break StartedAt ties
	seq map[id.ProcessID]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		processes: make(map[id.ProcessID]Process),
		seq:       make(map[id.ProcessID]int),
	}
}

// Upsert replaces every column except the address history.
func (s *InMemoryStore) Upsert(_ context.Context, p Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.processes[p.ProcessID]
	if ok {
		p.Addresses = existing.Addresses
	} else {
		p.Addresses = nil
		s.seq[p.ProcessID] = len(s.seq)
	}
	s.processes[p.ProcessID] = p
	return nil
}

func (s *InMemoryStore) AddAddress(_ context.Context, pid id.ProcessID, addr models.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.processes[pid]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Addresses = append(slices.Clone(p.Addresses), addr)
	s.processes[pid] = p
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, pid id.ProcessID) (Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.processes[pid]
	if !ok {
		return Process{}, sentinel.ErrNotFound
	}
	p.Addresses = slices.Clone(p.Addresses)
	return p, nil
}

// LatestStatus returns the status of the most recently started process.
func (s *InMemoryStore) LatestStatus(_ context.Context, nationalCode string) (models.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		latest Process
		found  bool
	)
	for pid, p := range s.processes {
		if p.NationalCode != nationalCode {
			continue
		}
		if !found || p.StartedAt.After(latest.StartedAt) ||
			(p.StartedAt.Equal(latest.StartedAt) && s.seq[pid] > s.seq[latest.ProcessID]) {
			latest, found = p, true
		}
	}
	if !found {
		return "", sentinel.ErrNotFound
	}
	return latest.Status, nil
}
