package pagecache

import (
	"context"
	"sync"
)

// MemoryStore is a Store that lives for the duration of the process.
type MemoryStore struct {
	mutex sync.RWMutex
	pages map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: map[string]string{}}
}

func (s *MemoryStore) Get(ctx context.Context, url string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	html, ok := s.pages[url]
	if !ok {
		return "", ErrPageNotFound
	}
	return html, nil
}

func (s *MemoryStore) Put(ctx context.Context, url, html string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.pages[url]; exists {
		return nil
	}
	s.pages[url] = html
	return nil
}

func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.pages)
}
