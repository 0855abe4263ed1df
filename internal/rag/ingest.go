// Package rag runs the ingest and query pipelines behind the backend API.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dgallion1/ragdesk/internal/chunker"
	"github.com/dgallion1/ragdesk/internal/doctree"
	"github.com/dgallion1/ragdesk/internal/embed"
	"github.com/dgallion1/ragdesk/internal/parser"
	"github.com/dgallion1/ragdesk/internal/vectorstore"
	"github.com/dgallion1/ragdesk/internal/wire"
)

// IngestedMessage is the message of a successful ingest reply.
const IngestedMessage = "Documents ingested successfully"

// embedBatchSize caps the texts sent in one embeddings request.
const embedBatchSize = 64

// Document is one uploaded file.
type Document struct {
	Filename string
	Data     []byte
}

// IngestOptions tunes an Ingestor. Zero values fall back to defaults.
type IngestOptions struct {
	Chunk         chunker.Config
	Parse         parser.Options
	MaxConcurrent int
	BatchSize     int
}

// Ingestor parses, chunks, embeds and stores documents.
type Ingestor struct {
	embedder embed.Embedder
	store    vectorstore.Store
	log      *slog.Logger
	opts     IngestOptions
}

func NewIngestor(embedder embed.Embedder, store vectorstore.Store, log *slog.Logger, opts IngestOptions) *Ingestor {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Ingestor{embedder: embedder, store: store, log: log, opts: opts}
}

// Ingest processes docs in order and stops at the first failure. Files
// stored before the failure stay stored.
func (in *Ingestor) Ingest(ctx context.Context, docs []Document) (wire.IngestResponse, error) {
	resp := wire.IngestResponse{
		Message:        IngestedMessage,
		ProcessedFiles: make([]string, 0, len(docs)),
	}
	for _, doc := range docs {
		n, err := in.ingestOne(ctx, doc)
		if err != nil {
			return wire.IngestResponse{}, err
		}
		resp.ProcessedFiles = append(resp.ProcessedFiles, doc.Filename)
		resp.TotalChunks += n
	}
	return resp, nil
}

func (in *Ingestor) ingestOne(ctx context.Context, doc Document) (int, error) {
	log := in.log.With("filename", doc.Filename)

	tree, err := parser.Parse(doc.Filename, doc.Data, in.opts.Parse)
	if err != nil {
		return 0, err
	}

	chunks := chunker.ChunkTree(tree, in.opts.Chunk)
	if len(chunks) == 0 {
		log.Warn("no extractable content")
		return 0, nil
	}
	tokens := 0
	for i := range chunks {
		chunks[i].ID = uuid.NewString()
		tokens += chunker.EstimateTokens(chunks[i].Text)
	}
	log.Info("chunked document", "chunks", len(chunks), "est_tokens", tokens)

	vectors, err := in.embedChunks(ctx, log, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", doc.Filename, err)
	}

	records := make([]vectorstore.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorstore.Record{
			ID:        c.ID,
			Source:    c.Source,
			Page:      c.Page,
			Text:      c.Text,
			Embedding: vectors[i],
		}
	}
	for start := 0; start < len(records); start += in.opts.BatchSize {
		end := min(start+in.opts.BatchSize, len(records))
		if err := in.store.Upsert(ctx, records[start:end]); err != nil {
			return 0, fmt.Errorf("store %s: %w", doc.Filename, err)
		}
	}

	log.Info("document stored", "chunks", len(chunks))
	return len(chunks), nil
}

// embedChunks embeds chunks in batches with bounded concurrency. The
// returned vectors line up with chunks.
func (in *Ingestor) embedChunks(ctx context.Context, log *slog.Logger, chunks []doctree.Chunk) ([][]float32, error) {
	type batchResult struct {
		start   int
		vectors [][]float32
		err     error
	}

	nBatches := (len(chunks) + embedBatchSize - 1) / embedBatchSize
	results := make(chan batchResult, nBatches)
	sem := make(chan struct{}, in.opts.MaxConcurrent)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		sem <- struct{}{}
		go func(start int, texts []string) {
			defer func() { <-sem }()
			vecs, err := withRetry(ctx, log, "embed", func() ([][]float32, error) {
				return in.embedder.Embed(ctx, texts)
			})
			if err == nil && len(vecs) != len(texts) {
				err = fmt.Errorf("expected %d vectors, got %d", len(texts), len(vecs))
			}
			results <- batchResult{start: start, vectors: vecs, err: err}
		}(start, texts)
	}

	vectors := make([][]float32, len(chunks))
	var firstErr error
	for range nBatches {
		r := <-results
		if r.err != nil {
			log.Error("embedding failed", "batch_start", r.start, "error", r.err)
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		copy(vectors[r.start:], r.vectors)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}
