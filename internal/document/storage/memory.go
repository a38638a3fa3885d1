package storage

import (
	"bytes"
	"context"
	"sync"

	"kyc/pkg/platform/sentinel"
)

// InMemory keeps objects in a map. Used when no bucket is configured and in tests.
type InMemory struct {
	mu      sync.RWMutex
	prefix  string
	objects map[string][]byte
}

func NewInMemory(prefix string) *InMemory {
	return &InMemory{prefix: prefix, objects: make(map[string][]byte)}
}

func (s *InMemory) Upload(ctx context.Context, obj Object) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}
	key := objectKey(s.prefix, obj)
	s.mu.Lock()
	s.objects[key] = bytes.Clone(obj.Payload)
	s.mu.Unlock()
	return Stored{Path: key, Hash: obj.Hash, SizeBytes: int64(len(obj.Payload))}, nil
}

// Get returns a stored payload.
func (s *InMemory) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[path]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return bytes.Clone(b), nil
}

// Len reports how many objects are stored.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
