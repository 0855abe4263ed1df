package rag

import (
	"context"
	"strings"
	"sync"

	"github.com/dgallion1/ragdesk/internal/llm"
	"github.com/dgallion1/ragdesk/internal/vectorstore"
)

// letterEmbedder maps text to letter frequencies so related texts land
// close together.
type letterEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  []error // returned in order before succeeding
}

func (e *letterEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	if len(e.fail) > 0 {
		err := e.fail[0]
		e.fail = e.fail[1:]
		e.mu.Unlock()
		return nil, err
	}
	e.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, 26)
		for _, r := range strings.ToLower(t) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		out[i] = v
	}
	return out, nil
}

func (e *letterEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type fakeAnswerer struct {
	answer   string
	err      error
	passages []llm.Passage
	calls    int
}

func (a *fakeAnswerer) Answer(_ context.Context, _ string, passages []llm.Passage) (string, error) {
	a.calls++
	a.passages = passages
	return a.answer, a.err
}

// recordingStore wraps a MemoryStore and records upsert batch sizes.
type recordingStore struct {
	*vectorstore.MemoryStore
	mu      sync.Mutex
	batches []int
	err     error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: vectorstore.NewMemoryStore()}
}

func (s *recordingStore) Upsert(ctx context.Context, records []vectorstore.Record) error {
	s.mu.Lock()
	s.batches = append(s.batches, len(records))
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Upsert(ctx, records)
}

// fixedStore returns canned matches.
type fixedStore struct {
	vectorstore.MemoryStore
	matches []vectorstore.Match
	topK    int
}

func (s *fixedStore) Search(_ context.Context, _ []float32, topK int) ([]vectorstore.Match, error) {
	s.topK = topK
	return s.matches, nil
}
