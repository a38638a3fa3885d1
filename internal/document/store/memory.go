// Package store persists document rows.
package store

import (
	"context"
	"sync"

	"kyc/internal/document/models"
	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	docs   map[id.ProcessID][]models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[id.ProcessID][]models.Document)}
}

func (s *InMemory) Insert(_ context.Context, doc models.Document) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	doc.ID = s.nextID
	s.docs[doc.ProcessID] = append(s.docs[doc.ProcessID], doc)
	return doc, nil
}

// Current returns the highest-id document of docType for pid.
func (s *InMemory) Current(_ context.Context, pid id.ProcessID, docType models.DocumentType) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.docs[pid]
	for i := len(docs) - 1; i >= 0; i-- {
		if docs[i].Type == docType {
			return docs[i], nil
		}
	}
	return models.Document{}, sentinel.ErrNotFound
}

// ListByProcess returns every document of pid in insertion order.
func (s *InMemory) ListByProcess(_ context.Context, pid id.ProcessID, types ...models.DocumentType) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Document
	for _, d := range s.docs[pid] {
		if len(types) == 0 || containsType(types, d.Type) {
			out = append(out, d)
		}
	}
	return out, nil
}

func containsType(types []models.DocumentType, t models.DocumentType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
