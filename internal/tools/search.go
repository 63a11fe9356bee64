package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/feedbackpulse/feedbackpulse/internal/enrich"
	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

const MaxSearchLimit = 50

type SearchMatch struct {
	Score          float64 `json:"score"`
	Text           string  `json:"text"`
	SentimentScore float64 `json:"sentiment_score"`
	SentimentLabel string  `json:"sentiment_label"`
	Platform       string  `json:"platform"`
	PostType       string  `json:"post_type"`
	Author         string  `json:"author"`
	URL            string  `json:"url"`
	Timestamp      string  `json:"timestamp"`
	Upvotes        float64 `json:"upvotes"`
}

type SearchResult struct {
	Status
	Query   string        `json:"query"`
	Filters SearchFilters `json:"filters"`
	Count   int           `json:"count"`
	Matches []SearchMatch `json:"matches"`
}

type SearchFilters struct {
	Platform      string `json:"platform"`
	TimeframeDays int    `json:"timeframe_days,omitempty"`
	Sentiment     string `json:"sentiment,omitempty"`
}

// SearchSentiment runs a semantic similarity search over the stored feedback,
// optionally constrained by platform, sentiment, and recency.
func (s *Service) SearchSentiment(ctx context.Context, query string, filters Filters, limit int) *SearchResult {
	result := &SearchResult{
		Query: query,
		Filters: SearchFilters{
			Platform:      filters.Platform,
			TimeframeDays: filters.TimeframeDays,
			Sentiment:     filters.Sentiment,
		},
		Matches: []SearchMatch{},
	}

	if strings.TrimSpace(query) == "" {
		result.Status = failed(fmt.Errorf("query must not be empty"))
		return result
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, enrich.QueryPrefix+query)
	if err != nil {
		result.Status = failed(fmt.Errorf("embedding query: %w", err))
		return result
	}

	matches, err := s.store.Query(ctx, vectorstore.Query{
		Vector:          embedding,
		TopK:            limit,
		Filter:          buildFilter(filters, s.now()),
		IncludeMetadata: true,
	})
	if err != nil {
		result.Status = failed(fmt.Errorf("querying store: %w", err))
		return result
	}

	for _, m := range matches {
		result.Matches = append(result.Matches, SearchMatch{
			Score:          float64(m.Score),
			Text:           mdString(m.Metadata, "text"),
			SentimentScore: mdFloat(m.Metadata, "sentiment_score"),
			SentimentLabel: mdString(m.Metadata, "sentiment_label"),
			Platform:       mdString(m.Metadata, "source_platform"),
			PostType:       mdString(m.Metadata, "post_type"),
			Author:         mdString(m.Metadata, "author"),
			URL:            mdString(m.Metadata, "url"),
			Timestamp:      mdString(m.Metadata, "datetime"),
			Upvotes:        mdFloat(m.Metadata, "upvotes"),
		})
	}
	result.Count = len(result.Matches)
	result.Status = ok()
	return result
}
