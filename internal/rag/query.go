package rag

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/mo"

	"github.com/dgallion1/ragdesk/internal/embed"
	"github.com/dgallion1/ragdesk/internal/llm"
	"github.com/dgallion1/ragdesk/internal/vectorstore"
	"github.com/dgallion1/ragdesk/internal/wire"
)

// DefaultTopK is used when a query asks for zero or fewer passages.
const DefaultTopK = 3

// Answerer writes an answer from retrieved passages.
type Answerer interface {
	Answer(ctx context.Context, question string, passages []llm.Passage) (string, error)
}

// Cache holds previous answers keyed by query text.
type Cache interface {
	Get(ctx context.Context, query string) (wire.QueryResponse, bool, error)
	Set(ctx context.Context, query string, resp wire.QueryResponse) error
}

// Querier answers questions against the vector store.
type Querier struct {
	embedder embed.Embedder
	store    vectorstore.Store
	answerer Answerer
	cache    Cache
	log      *slog.Logger
	topN     int
}

// NewQuerier builds a Querier. cache may be nil. topN bounds the passages
// handed to the model.
func NewQuerier(embedder embed.Embedder, store vectorstore.Store, answerer Answerer, cache Cache, log *slog.Logger, topN int) *Querier {
	if topN <= 0 {
		topN = 3
	}
	return &Querier{
		embedder: embedder,
		store:    store,
		answerer: answerer,
		cache:    cache,
		log:      log,
		topN:     topN,
	}
}

func (q *Querier) Query(ctx context.Context, query string, topK int) (wire.QueryResponse, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	log := q.log.With("query", query, "top_k", topK)

	if q.cache != nil {
		cached, ok, err := q.cache.Get(ctx, query)
		switch {
		case err != nil:
			log.Warn("cache lookup failed", "error", err)
		case ok:
			log.Debug("cache hit")
			return cached, nil
		}
	}

	vecs, err := withRetry(ctx, log, "embed_query", func() ([][]float32, error) {
		return q.embedder.Embed(ctx, []string{query})
	})
	if err != nil {
		return wire.QueryResponse{}, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return wire.QueryResponse{}, fmt.Errorf("embed query: expected 1 vector, got %d", len(vecs))
	}

	matches, err := q.store.Search(ctx, vecs[0], topK)
	if err != nil {
		return wire.QueryResponse{}, err
	}
	matches = rerank(matches, q.topN)
	log.Info("retrieved context", "matches", len(matches))

	resp := wire.QueryResponse{Query: query, Sources: []wire.Source{}}
	if len(matches) == 0 {
		resp.Answer = llm.NoAnswer
	} else {
		passages := make([]llm.Passage, len(matches))
		for i, m := range matches {
			passages[i] = llm.Passage{Source: m.Source, Page: m.Page, Text: m.Text}
			resp.Sources = append(resp.Sources, toSource(m))
		}
		resp.Answer, err = withRetry(ctx, log, "answer", func() (string, error) {
			return q.answerer.Answer(ctx, query, passages)
		})
		if err != nil {
			return wire.QueryResponse{}, fmt.Errorf("generate answer: %w", err)
		}
	}

	if q.cache != nil {
		if err := q.cache.Set(ctx, query, resp); err != nil {
			log.Warn("cache store failed", "error", err)
		}
	}
	return resp, nil
}

// rerank orders matches by score, best first, and keeps at most n.
func rerank(matches []vectorstore.Match, n int) []vectorstore.Match {
	out := slices.Clone(matches)
	slices.SortStableFunc(out, func(a, b vectorstore.Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func toSource(m vectorstore.Match) wire.Source {
	src := wire.Source{
		SourceFilename: m.Source,
		Score:          m.Score,
		ChunkText:      m.Text,
		ChunkID:        m.ID,
	}
	if m.Page > 0 {
		src.PageNumber = mo.Some(m.Page)
	}
	return src
}
