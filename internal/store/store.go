package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when no snapshot has been persisted for the id.
var ErrNotFound = errors.New("snapshot not found")

// Store is the persistence boundary: a durable key-value mapping from
// document id to its latest serialized snapshot. The engine never assumes a
// particular storage technology behind it. Delete must succeed when no
// snapshot exists for the id.
type Store interface {
	Put(ctx context.Context, id, content string) error
	Get(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps snapshots in process memory. Used for development and
// tests when no durable backend is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Put(ctx context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = content
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.data[id]
	if !ok {
		return "", ErrNotFound
	}
	return content, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}
