package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore is a brute-force store for development and tests. Contents
// are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Upsert(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("upsert: record without id")
		}
		if _, exists := s.records[r.ID]; !exists {
			s.order = append(s.order, r.ID)
		}
		r.Embedding = slices.Clone(r.Embedding)
		s.records[r.ID] = r
	}
	return nil
}

// Search ranks every record by cosine similarity. Equal scores keep
// insertion order.
func (s *MemoryStore) Search(_ context.Context, embedding []float32, topK int) ([]Match, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("search: embedding is empty")
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	matches := make([]Match, 0, len(s.order))
	for _, id := range s.order {
		r := s.records[id]
		matches = append(matches, Match{
			ID:     r.ID,
			Source: r.Source,
			Page:   r.Page,
			Text:   r.Text,
			Score:  cosine(embedding, r.Embedding),
		})
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Close() {}

var _ Store = (*MemoryStore)(nil)
