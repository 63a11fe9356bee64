// Package vectorstore abstracts the hosted destination store: a keyed upsert
// surface with vector-similarity queries and metadata filtering. The pipeline
// and the agent-facing tools both talk to it through the Store interface so
// tests can swap in an in-memory fake.
package vectorstore

import (
	"context"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
)

// Dimension is the embedding width the index was created with (e5-base-v2).
const Dimension = 768

// MaxTopK is the store's documented result cap for a single query. Full-scan
// style aggregations are bounded by this page; anything beyond it is silently
// truncated.
const MaxTopK = 10000

// Match is one query hit with its similarity score and stored metadata.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Query describes one similarity query. Filter follows the store's metadata
// grammar: equality by value, ranges via nested {"$gte": x, "$lte": y} maps.
type Query struct {
	Vector          []float32
	TopK            int
	Filter          map[string]any
	IncludeMetadata bool
}

type Store interface {
	// Upsert writes the records keyed by their IDs. Idempotent per ID.
	Upsert(ctx context.Context, records []models.VectorRecord) error

	// FetchExisting returns the subset of ids already present in the store.
	FetchExisting(ctx context.Context, ids []string) ([]string, error)

	// Query runs a similarity search honoring the metadata filter.
	Query(ctx context.Context, q Query) ([]Match, error)
}

// ZeroVector returns the dummy query vector used for metadata-only scans,
// since the store cannot query without one.
func ZeroVector() []float32 {
	return make([]float32, Dimension)
}
