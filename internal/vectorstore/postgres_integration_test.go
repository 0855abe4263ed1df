package vectorstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Integration(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION_TESTS") != "1" {
		t.Skip("set RUN_DB_INTEGRATION_TESTS=1 to run postgres integration tests")
	}
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := NewPostgresPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool, 3))

	store := NewPostgresStore(pool)
	near := uuid.NewString()
	far := uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "DELETE FROM rag_chunks WHERE id = $1 OR id = $2", uuid.MustParse(near), uuid.MustParse(far))
	})

	require.NoError(t, store.Upsert(ctx, []Record{
		{ID: near, Source: "near.pdf", Page: 2, Text: "close", Embedding: []float32{1, 0, 0}},
		{ID: far, Source: "far.txt", Page: 1, Text: "distant", Embedding: []float32{0, 0, 1}},
	}))

	got, err := store.Search(ctx, []float32{0.9, 0.1, 0}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, near, got[0].ID)
	assert.Equal(t, 2, got[0].Page)
	assert.Greater(t, got[0].Score, 0.9)
}
