package objectstore

import (
	"context"
	"sync"

	"github.com/yanqian/krishi-vaani/internal/domain/disease"
)

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

// Put implements disease.ImageArchive.
func (s *MemoryStore) Put(ctx context.Context, key string, img disease.Image) error {
	return s.PutObject(ctx, key, img.Data, img.ContentType, img.Filename)
}

// PutObject stores a copy of data under key.
func (s *MemoryStore) PutObject(_ context.Context, key string, data []byte, contentType, filename string) error {
	copied := append([]byte(nil), data...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: copied, Filename: filename, ContentType: contentType}
	return nil
}

// Get returns a stored object.
func (s *MemoryStore) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

var _ Store = (*MemoryStore)(nil)
