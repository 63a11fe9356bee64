package models

import "time"

type Platform string

const (
	PlatformReddit         Platform = "reddit"
	PlatformPissedConsumer Platform = "pissedconsumer"
)

const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
)

const (
	PostTypePost    = "post"
	PostTypeComment = "comment"
	PostTypeReview  = "review"
)

// MetadataTextLimit bounds the text stored alongside a vector.
const MetadataTextLimit = 1000

// TruncateRunes shortens s to at most max characters. Cutting never lands
// inside a multi-byte rune, so the result is always valid UTF-8.
func TruncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// Sentiment holds a binary model verdict. SignedValue folds the label into the
// confidence: positive items keep the confidence, negative items negate it.
type Sentiment struct {
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
	SignedValue float64 `json:"signed_value"`
}

// NewSentiment derives SignedValue from the label so the sign invariant can
// never drift from the label.
func NewSentiment(label string, confidence float64) Sentiment {
	signed := confidence
	if label != SentimentPositive {
		signed = -confidence
	}
	return Sentiment{Label: label, Confidence: confidence, SignedValue: signed}
}

// Location is a best-effort extraction; nil when nothing was detected.
type Location struct {
	City       string  `json:"city,omitempty"`
	State      string  `json:"state,omitempty"`
	Country    string  `json:"country,omitempty"`
	Raw        string  `json:"raw,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// FeedbackItem is one unit of customer feedback from any source platform.
// Sentiment and Embedding are zero-valued until the item passes enrichment.
type FeedbackItem struct {
	SourceID       string    `json:"source_id"`
	SourcePlatform Platform  `json:"source_platform"`
	PostType       string    `json:"post_type"`
	Text           string    `json:"text"`
	Title          string    `json:"title,omitempty"`
	Author         string    `json:"author"`
	URL            string    `json:"url"`
	CreatedAt      float64   `json:"created_at"`
	Upvotes        float64   `json:"upvotes"`
	Subreddit      string    `json:"subreddit,omitempty"`
	ParentID       string    `json:"parent_id,omitempty"`
	Rating         float64   `json:"rating,omitempty"`
	BusinessName   string    `json:"business_name,omitempty"`
	Sentiment      Sentiment `json:"sentiment"`
	Embedding      []float32 `json:"-"`
	Location       *Location `json:"location,omitempty"`
}

// VectorRecord is what gets persisted to the destination store.
type VectorRecord struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// sourceTypes maps platforms to the coarse source_type stored in metadata.
var sourceTypes = map[Platform]string{
	PlatformReddit:         "social_media",
	PlatformPissedConsumer: "review",
}

// Metadata flattens the item into the destination store's metadata document.
// The embedding is deliberately excluded and the text truncated.
func (f *FeedbackItem) Metadata() map[string]any {
	text := TruncateRunes(f.Text, MetadataTextLimit)

	md := map[string]any{
		"source_platform":   string(f.SourcePlatform),
		"source_type":       sourceTypes[f.SourcePlatform],
		"source_identifier": f.SourceID,
		"post_type":         f.PostType,
		"text":              text,
		"author":            f.Author,
		"url":               f.URL,
		"upvotes":           f.Upvotes,
		"timestamp":         f.CreatedAt,
		"datetime":          time.Unix(int64(f.CreatedAt), 0).UTC().Format(time.RFC3339),
		"sentiment_score":   f.Sentiment.SignedValue,
		"sentiment_label":   f.Sentiment.Label,
	}

	if f.Title != "" {
		md["title"] = f.Title
	}
	if f.Subreddit != "" {
		md["subreddit"] = f.Subreddit
	}
	if f.ParentID != "" {
		md["parent_id"] = f.ParentID
	}
	if f.SourcePlatform == PlatformPissedConsumer {
		// Reviews always carry a rating (unrated pages render as 1 star)
		// plus the business the listing belongs to.
		rating := f.Rating
		if rating == 0 {
			rating = 1.0
		}
		md["rating"] = rating
		md["review_source"] = "PissedConsumer"
		if f.BusinessName != "" {
			md["business_name"] = f.BusinessName
		}
	} else if f.Rating != 0 {
		md["rating"] = f.Rating
	}
	if loc := f.Location; loc != nil {
		if loc.City != "" {
			md["location_city"] = loc.City
		}
		if loc.State != "" {
			md["location_state"] = loc.State
		}
		if loc.Country != "" {
			md["location_country"] = loc.Country
		}
		if loc.Raw != "" {
			md["location_raw"] = loc.Raw
		}
		if loc.Confidence > 0 {
			md["location_confidence"] = loc.Confidence
		}
	}

	return md
}
