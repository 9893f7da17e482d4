package blob

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]PutOptions
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		meta:    make(map[string]PutOptions),
	}
}

func memKey(bucket, key string) string { return bucket + "/" + key }

func (s *MemoryStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[memKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, bucket, key string, data []byte, opts PutOptions) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[memKey(bucket, key)] = stored
	s.meta[memKey(bucket, key)] = opts
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, bucket, key string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey(bucket, key)
	if _, ok := s.objects[k]; !ok {
		return fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	delete(s.objects, k)
	delete(s.meta, k)
	return nil
}

// Object returns a stored object's bytes.
func (s *MemoryStore) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[memKey(bucket, key)]
	return data, ok
}

// Metadata returns the upload metadata recorded for an object.
func (s *MemoryStore) Metadata(bucket, key string) (PutOptions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts, ok := s.meta[memKey(bucket, key)]
	return opts, ok
}

// Len reports how many objects the store holds.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
