package conversation

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Conversation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Conversation)}
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.records[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return conv.Clone(), nil
}

func (s *InMemoryStore) Put(_ context.Context, conv Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[conv.ID] = conv.Clone()
	return nil
}

func (s *InMemoryStore) ListIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *InMemoryStore) Close() error { return nil }
