package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

const memoryScheme = "memory://"

// MemoryStorage implements Storage in memory. Used for tests and dry runs.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string][]byte),
	}
}

func (s *MemoryStorage) Save(ctx context.Context, path string, file io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read object content: %w", err)
	}

	s.mu.Lock()
	s.objects[path] = content
	s.mu.Unlock()

	return nil
}

func (s *MemoryStorage) URL(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[path]
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return memoryScheme + path, nil
}

func (s *MemoryStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[path]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	delete(s.objects, path)
	return nil
}

// Resolve returns a copy of the bytes behind a reference returned by URL
func (s *MemoryStorage) Resolve(ref string) ([]byte, error) {
	path, ok := strings.CutPrefix(ref, memoryScheme)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, ref)
	}

	s.mu.RLock()
	content, exists := s.objects[path]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	result := make([]byte, len(content))
	copy(result, content)
	return result, nil
}

// Count returns the number of stored objects
func (s *MemoryStorage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
