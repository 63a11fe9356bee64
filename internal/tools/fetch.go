package tools

import (
	"context"
	"math"
	"sort"

	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

const MaxRecentPostsLimit = 100

type RecentPost struct {
	Text           string   `json:"text"`
	SentimentScore float64  `json:"sentiment_score"`
	SentimentLabel string   `json:"sentiment_label"`
	Platform       string   `json:"platform"`
	PostType       string   `json:"post_type"`
	Author         string   `json:"author"`
	URL            string   `json:"url"`
	Timestamp      string   `json:"timestamp"`
	Upvotes        float64  `json:"upvotes"`
	SourceID       string   `json:"source_id"`
	Subreddit      string   `json:"subreddit,omitempty"`
	Title          string   `json:"title,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	Location       *PostLoc `json:"location,omitempty"`
}

type PostLoc struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

type RecentPostsFilters struct {
	Platform      string `json:"platform"`
	Sentiment     string `json:"sentiment"`
	TimeframeDays int    `json:"timeframe_days"`
	PostType      string `json:"post_type,omitempty"`
	SortBy        string `json:"sort_by"`
}

type RecentPostsResult struct {
	Status
	Filters RecentPostsFilters `json:"filters"`
	Count   int                `json:"count"`
	Posts   []RecentPost       `json:"posts"`
}

// FetchRecentPosts lists recent feedback sorted by recency, sentiment
// magnitude, or upvotes.
func (s *Service) FetchRecentPosts(ctx context.Context, filters Filters, limit int, sortBy string) *RecentPostsResult {
	if filters.Platform == "" {
		filters.Platform = "all"
	}
	if filters.Sentiment == "" {
		filters.Sentiment = "all"
	}
	if filters.TimeframeDays <= 0 {
		filters.TimeframeDays = 7
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxRecentPostsLimit {
		limit = MaxRecentPostsLimit
	}
	switch sortBy {
	case "timestamp", "sentiment_score", "upvotes":
	default:
		sortBy = "timestamp"
	}

	result := &RecentPostsResult{
		Filters: RecentPostsFilters{
			Platform:      filters.Platform,
			Sentiment:     filters.Sentiment,
			TimeframeDays: filters.TimeframeDays,
			PostType:      filters.PostType,
			SortBy:        sortBy,
		},
		Posts: []RecentPost{},
	}

	// Over-fetch so post-query sorting has material to work with.
	topK := limit * 2
	if topK > vectorstore.MaxTopK {
		topK = vectorstore.MaxTopK
	}
	matches, err := s.store.Query(ctx, vectorstore.Query{
		Vector:          vectorstore.ZeroVector(),
		TopK:            topK,
		Filter:          buildFilter(filters, s.now()),
		IncludeMetadata: true,
	})
	if err != nil {
		result.Status = failed(err)
		return result
	}

	posts := make([]RecentPost, 0, len(matches))
	for _, m := range matches {
		post := RecentPost{
			Text:           mdString(m.Metadata, "text"),
			SentimentScore: mdFloat(m.Metadata, "sentiment_score"),
			SentimentLabel: mdString(m.Metadata, "sentiment_label"),
			Platform:       mdString(m.Metadata, "source_platform"),
			PostType:       mdString(m.Metadata, "post_type"),
			Author:         mdString(m.Metadata, "author"),
			URL:            mdString(m.Metadata, "url"),
			Timestamp:      mdString(m.Metadata, "datetime"),
			Upvotes:        mdFloat(m.Metadata, "upvotes"),
			SourceID:       mdString(m.Metadata, "source_identifier"),
			Subreddit:      mdString(m.Metadata, "subreddit"),
			Title:          mdString(m.Metadata, "title"),
			Rating:         mdFloat(m.Metadata, "rating"),
		}
		if city := mdString(m.Metadata, "location_city"); city != "" {
			post.Location = &PostLoc{
				City:    city,
				State:   mdString(m.Metadata, "location_state"),
				Country: mdString(m.Metadata, "location_country"),
			}
		}
		posts = append(posts, post)
	}

	switch sortBy {
	case "timestamp":
		sort.Slice(posts, func(i, j int) bool { return posts[i].Timestamp > posts[j].Timestamp })
	case "sentiment_score":
		sort.Slice(posts, func(i, j int) bool {
			return math.Abs(posts[i].SentimentScore) > math.Abs(posts[j].SentimentScore)
		})
	case "upvotes":
		sort.Slice(posts, func(i, j int) bool { return posts[i].Upvotes > posts[j].Upvotes })
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	result.Posts = posts
	result.Count = len(posts)
	result.Status = ok()
	return result
}
