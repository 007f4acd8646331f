package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory ObjectStore used for dry runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) PutObject(_ context.Context, bucket, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buckets[bucket] == nil {
		s.buckets[bucket] = make(map[string][]byte)
	}
	s.buckets[bucket][key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) DeleteObject(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets[bucket], key)
	return nil
}

// ListObjects returns the keys of bucket in lexical order.
func (s *MemoryStore) ListObjects(_ context.Context, bucket string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.buckets[bucket]))
	for k := range s.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// HealthCheck always succeeds.
func (s *MemoryStore) HealthCheck(context.Context, ...string) error {
	return nil
}

// Keys returns the keys of bucket in lexical order.
func (s *MemoryStore) Keys(bucket string) []string {
	keys, _ := s.ListObjects(context.Background(), bucket)
	return keys
}
