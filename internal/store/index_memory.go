package store

import (
	"context"
	"sync"
	"time"
)

// MemoryIndex is the in-process fallback used when no Redis URL is
// configured. Entries expire lazily on read.
type MemoryIndex struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]Entry
}

func NewMemoryIndex(ttl time.Duration) *MemoryIndex {
	return &MemoryIndex{ttl: ttl, entries: make(map[string]Entry)}
}

func (s *MemoryIndex) Put(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Name] = e
	return nil
}

func (s *MemoryIndex) Get(_ context.Context, name string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return Entry{}, false, nil
	}
	if s.ttl > 0 && time.Since(e.Created) > s.ttl {
		delete(s.entries, name)
		return Entry{}, false, nil
	}
	return e, true, nil
}
