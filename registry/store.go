// Package registry implements the service-discovery boundary: one record per
// logical service name, created on startup, refreshed while running and
// deleted on shutdown.
package registry

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrKeyExists is returned by Store.Create when the key is already held.
	ErrKeyExists = errors.New("registry: key already exists")
	// ErrKeyNotFound is returned by Store.Get when no record is stored.
	ErrKeyNotFound = errors.New("registry: key not found")
)

// Store is the minimal key-value surface the client needs. The production
// implementation sits on a JetStream bucket; tests use MemoryStore.
// Update must refuse to write a key that does not exist, so a refresh racing
// a Delete can never bring the record back.
type Store interface {
	Create(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Update(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is an in-process Store for tests and broker-less runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Create(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return ErrKeyExists
	}
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

func (s *MemoryStore) Update(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return ErrKeyNotFound
	}
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
