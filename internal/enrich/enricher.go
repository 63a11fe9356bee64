// Package enrich computes the sentiment verdict and embedding vector for one
// piece of feedback text. Enrichment is all-or-nothing: an item either gets
// both results or an error, never a partial pair.
package enrich

import (
	"context"
	"fmt"
	"math"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

// MaxSentimentInput is the maximum text length handed to the sentiment model;
// longer input is truncated, not rejected.
const MaxSentimentInput = 500

// PassagePrefix and QueryPrefix are the e5 instruction prefixes: stored
// passages get one, search queries the other.
const (
	PassagePrefix = "passage: "
	QueryPrefix   = "query: "
)

type Analyzer interface {
	Analyze(ctx context.Context, text string) (models.Sentiment, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Enricher struct {
	analyzer Analyzer
	embedder Embedder
}

func NewEnricher(analyzer Analyzer, embedder Embedder) *Enricher {
	return &Enricher{analyzer: analyzer, embedder: embedder}
}

// Enrich scores and embeds one text. The sentiment input is truncated to the
// model limit; the embedding is validated against the index dimension and
// re-normalized to unit length.
func (e *Enricher) Enrich(ctx context.Context, text string) (models.Sentiment, []float32, error) {
	sentimentInput := models.TruncateRunes(text, MaxSentimentInput)

	sentiment, err := e.analyzer.Analyze(ctx, sentimentInput)
	if err != nil {
		return models.Sentiment{}, nil, fmt.Errorf("sentiment failed: %w", err)
	}

	embedding, err := e.embedder.Embed(ctx, PassagePrefix+text)
	if err != nil {
		return models.Sentiment{}, nil, fmt.Errorf("embedding failed: %w", err)
	}

	if len(embedding) != vectorstore.Dimension {
		return models.Sentiment{}, nil, fmt.Errorf("embedding has %d dimensions, want %d",
			len(embedding), vectorstore.Dimension)
	}

	normalized, err := Normalize(embedding)
	if err != nil {
		return models.Sentiment{}, nil, err
	}

	return sentiment, normalized, nil
}

// Normalize scales a vector to unit L2 norm.
func Normalize(vec []float32) ([]float32, error) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return nil, fmt.Errorf("cannot normalize zero-magnitude embedding")
	}

	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out, nil
}
