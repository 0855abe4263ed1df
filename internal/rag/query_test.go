package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/ragdesk/internal/cache"
	"github.com/dgallion1/ragdesk/internal/llm"
	"github.com/dgallion1/ragdesk/internal/vectorstore"
	"github.com/dgallion1/ragdesk/internal/wire"
)

func newMiniCache(t *testing.T) (*cache.QueryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, 24*time.Hour), mr
}

func TestQuery_NoContextAnswersNoAnswer(t *testing.T) {
	ans := &fakeAnswerer{answer: "unused"}
	q := NewQuerier(&letterEmbedder{}, vectorstore.NewMemoryStore(), ans, nil, testLogger(), 3)

	resp, err := q.Query(context.Background(), "anything?", 3)
	require.NoError(t, err)
	assert.Equal(t, llm.NoAnswer, resp.Answer)
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, "anything?", resp.Query)
	assert.Zero(t, ans.calls)
}

func TestQuery_RerankKeepsTopN(t *testing.T) {
	store := &fixedStore{matches: []vectorstore.Match{
		{ID: "1", Source: "a.txt", Page: 1, Text: "low", Score: 0.2},
		{ID: "2", Source: "b.pdf", Page: 4, Text: "high", Score: 0.9},
		{ID: "3", Source: "c.csv", Page: 1, Text: "mid", Score: 0.5},
		{ID: "4", Source: "d.txt", Page: 0, Text: "none", Score: 0.1},
	}}
	ans := &fakeAnswerer{answer: "42"}
	q := NewQuerier(&letterEmbedder{}, store, ans, nil, testLogger(), 2)

	resp, err := q.Query(context.Background(), "meaning", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, store.topK)
	assert.Equal(t, "42", resp.Answer)

	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "b.pdf", resp.Sources[0].SourceFilename)
	assert.Equal(t, "2", resp.Sources[0].ChunkID)
	page, ok := resp.Sources[0].PageNumber.Get()
	assert.True(t, ok)
	assert.Equal(t, 4, page)
	assert.Equal(t, "c.csv", resp.Sources[1].SourceFilename)

	require.Len(t, ans.passages, 2)
	assert.Equal(t, llm.Passage{Source: "b.pdf", Page: 4, Text: "high"}, ans.passages[0])
}

func TestQuery_DefaultTopK(t *testing.T) {
	store := &fixedStore{}
	q := NewQuerier(&letterEmbedder{}, store, &fakeAnswerer{}, nil, testLogger(), 3)

	_, err := q.Query(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, store.topK)
}

func TestQuery_MissingPageIsAbsent(t *testing.T) {
	store := &fixedStore{matches: []vectorstore.Match{{ID: "x", Source: "s.txt", Text: "t", Score: 0.4}}}
	q := NewQuerier(&letterEmbedder{}, store, &fakeAnswerer{answer: "a"}, nil, testLogger(), 3)

	resp, err := q.Query(context.Background(), "q", 3)
	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)
	assert.True(t, resp.Sources[0].PageNumber.IsAbsent())
}

func TestQuery_CachesAnswers(t *testing.T) {
	qc, mr := newMiniCache(t)
	emb := &letterEmbedder{}
	store := &fixedStore{matches: []vectorstore.Match{{ID: "1", Source: "geo.pdf", Page: 2, Text: "Paris", Score: 0.8}}}
	ans := &fakeAnswerer{answer: "Paris"}
	q := NewQuerier(emb, store, ans, qc, testLogger(), 3)

	first, err := q.Query(context.Background(), "Capital of France?", 3)
	require.NoError(t, err)
	assert.True(t, mr.Exists("query_cache:capital of france?"))
	assert.Equal(t, 24*time.Hour, mr.TTL("query_cache:capital of france?"))

	second, err := q.Query(context.Background(), "CAPITAL OF FRANCE?", 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, emb.Calls())
	assert.Equal(t, 1, ans.calls)
}

func TestQuery_CacheOutageIsNotFatal(t *testing.T) {
	qc, mr := newMiniCache(t)
	mr.Close()

	store := &fixedStore{matches: []vectorstore.Match{{ID: "1", Source: "a.txt", Page: 1, Text: "x", Score: 0.5}}}
	q := NewQuerier(&letterEmbedder{}, store, &fakeAnswerer{answer: "fine"}, qc, testLogger(), 3)

	resp, err := q.Query(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Equal(t, "fine", resp.Answer)
}

func TestQuery_AnswerFailure(t *testing.T) {
	qc, mr := newMiniCache(t)
	store := &fixedStore{matches: []vectorstore.Match{{ID: "1", Source: "a.txt", Page: 1, Text: "x", Score: 0.5}}}
	q := NewQuerier(&letterEmbedder{}, store, &fakeAnswerer{err: errors.New("model unavailable")}, qc, testLogger(), 3)

	_, err := q.Query(context.Background(), "q", 3)
	assert.ErrorContains(t, err, "model unavailable")
	assert.False(t, mr.Exists("query_cache:q"))
}

func TestQuery_EmbedFailure(t *testing.T) {
	emb := &letterEmbedder{fail: []error{errors.New("bad key")}}
	q := NewQuerier(emb, vectorstore.NewMemoryStore(), &fakeAnswerer{}, nil, testLogger(), 3)

	_, err := q.Query(context.Background(), "q", 3)
	assert.ErrorContains(t, err, "bad key")
}

func TestQuery_EndToEndWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	emb := &letterEmbedder{}
	in := NewIngestor(emb, store, testLogger(), IngestOptions{})
	_, err := in.Ingest(ctx, []Document{{Filename: "geo.txt", Data: []byte("Paris is the capital of France.")}})
	require.NoError(t, err)

	ans := &fakeAnswerer{answer: "Paris"}
	resp, err := NewQuerier(emb, store, ans, nil, testLogger(), 3).Query(ctx, "What is the capital of France?", 3)
	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, wire.QueryResponse{
		Answer: "Paris",
		Query:  "What is the capital of France?",
		Sources: []wire.Source{{
			SourceFilename: "geo.txt",
			PageNumber:     resp.Sources[0].PageNumber,
			Score:          resp.Sources[0].Score,
			ChunkText:      "Paris is the capital of France.",
			ChunkID:        resp.Sources[0].ChunkID,
		}},
	}, resp)
	assert.Greater(t, resp.Sources[0].Score, 0.5)
}
