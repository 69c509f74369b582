package storage

import (
	"context"
	"io"
	"sync"
)

type memoryObject struct {
	data     []byte
	mimeType string
}

// MemoryStorage keeps objects in process memory. It backs local development
// and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	urls    URLMapper
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	if baseURL == "" {
		baseURL = "memory://media"
	}
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
		urls:    NewURLMapper(baseURL),
	}
}

func (s *MemoryStorage) Upload(ctx context.Context, body io.Reader, size int64, mimeType, originalName, folder string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	key := NewObjectKey(folder, originalName)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: data, mimeType: mimeType}
	return s.urls.URL(key), nil
}

func (s *MemoryStorage) Delete(ctx context.Context, rawURL string) error {
	key, err := s.urls.Key(rawURL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStorage) Owns(rawURL string) bool {
	return s.urls.Owns(rawURL)
}

// Exists reports whether the object behind rawURL is stored.
func (s *MemoryStorage) Exists(rawURL string) bool {
	key, err := s.urls.Key(rawURL)
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
