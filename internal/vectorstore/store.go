// Package vectorstore keeps chunk embeddings and answers nearest-neighbour
// queries over them.
package vectorstore

import (
	"context"
	"math"
)

// Record is one embedded chunk.
type Record struct {
	ID        string
	Source    string
	Page      int
	Text      string
	Embedding []float32
}

// Match is a search hit. Score is cosine similarity, higher is closer.
type Match struct {
	ID     string
	Source string
	Page   int
	Text   string
	Score  float64
}

// Store is implemented by the in-memory and Postgres backends.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, embedding []float32, topK int) ([]Match, error)
	Count(ctx context.Context) (int, error)
	Close()
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
