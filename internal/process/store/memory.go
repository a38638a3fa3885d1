// Package store persists process event histories.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"kyc/internal/process/models"
	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
)

// InMemoryEvents is an append-only event log kept in process memory.
type InMemoryEvents struct {
	mu      sync.RWMutex
	streams map[id.ProcessID][]models.Event
}

func NewInMemoryEvents() *InMemoryEvents {
	return &InMemoryEvents{streams: make(map[id.ProcessID][]models.Event)}
}

// Load returns the history of pid in version order; an unknown pid yields an
// empty history, not an error.
func (s *InMemoryEvents) Load(_ context.Context, pid id.ProcessID) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.streams[pid]), nil
}

// Append adds ev at its version. A version that is not the next one in the
// stream is a conflict.
func (s *InMemoryEvents) Append(_ context.Context, ev models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := s.streams[ev.ProcessID]
	if ev.Version != int64(len(stream))+1 {
		return fmt.Errorf("append %s v%d: %w", ev.ProcessID, ev.Version, sentinel.ErrConflict)
	}
	s.streams[ev.ProcessID] = append(stream, ev)
	return nil
}
