package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore keeps chunks in a pgvector table and searches by cosine
// distance.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPool connects and checks the connection.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const upsertChunkSQL = `
	INSERT INTO rag_chunks (id, source_filename, page_number, chunk_text, embedding)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		source_filename = EXCLUDED.source_filename,
		page_number = EXCLUDED.page_number,
		chunk_text = EXCLUDED.chunk_text,
		embedding = EXCLUDED.embedding,
		updated_at = NOW()`

// Upsert writes records in one batch round trip.
func (s *PostgresStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return fmt.Errorf("upsert: chunk id %q: %w", r.ID, err)
		}
		var page *int32
		if r.Page > 0 {
			p := int32(r.Page)
			page = &p
		}
		batch.Queue(upsertChunkSQL, id, r.Source, page, r.Text, pgvector.NewVector(r.Embedding))
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert chunk: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, embedding []float32, topK int) ([]Match, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("search: embedding is empty")
	}
	if topK <= 0 {
		topK = 5
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, source_filename, page_number, chunk_text,
		       (embedding <=> $1::vector) AS distance
		FROM rag_chunks
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, topK)
	for rows.Next() {
		var (
			page     *int32
			distance float64
			m        Match
		)
		if err := rows.Scan(&m.ID, &m.Source, &page, &m.Text, &distance); err != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", err)
		}
		if page != nil {
			m.Page = int(*page)
		}
		m.Score = 1 - distance
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM rag_chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

var _ Store = (*PostgresStore)(nil)
