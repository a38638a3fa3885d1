package stepstatus

import (
	"context"
	"slices"
	"sync"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[id.ProcessID][]StepStatus
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[id.ProcessID][]StepStatus)}
}

func (s *InMemoryStore) Append(_ context.Context, rec StepStatus) (StepStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	s.rows[rec.ProcessID] = append(s.rows[rec.ProcessID], rec)
	return rec, nil
}

func (s *InMemoryStore) Latest(_ context.Context, pid id.ProcessID, step models.Step) (StepStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.rows[pid]
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Step == step {
			return rows[i], nil
		}
	}
	return StepStatus{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) History(_ context.Context, pid id.ProcessID) ([]StepStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows[pid]), nil
}
