package tools

import (
	"strings"
	"time"
)

// Filters are the shared named parameters accepted by every tool. Zero values
// mean "no constraint".
type Filters struct {
	Platform      string
	TimeframeDays int
	Sentiment     string
	PostType      string
}

// buildFilter translates Filters into the store's metadata filter grammar:
// equality matches plus a $gte range on the timestamp field.
func buildFilter(f Filters, now time.Time) map[string]any {
	filter := map[string]any{}

	if f.Platform != "" && f.Platform != "all" {
		filter["source_platform"] = f.Platform
	}

	switch strings.ToLower(f.Sentiment) {
	case "positive":
		filter["sentiment_label"] = "POSITIVE"
	case "negative":
		filter["sentiment_label"] = "NEGATIVE"
	}

	if f.PostType != "" && f.PostType != "all" {
		filter["post_type"] = f.PostType
	}

	if f.TimeframeDays > 0 {
		cutoff := float64(now.Unix()) - float64(f.TimeframeDays)*24*60*60
		filter["timestamp"] = map[string]any{"$gte": cutoff}
	}

	if len(filter) == 0 {
		return nil
	}
	return filter
}

// windowFilter builds a filter over an explicit [start, end] timestamp range,
// used by period comparisons.
func windowFilter(platform string, start, end float64) map[string]any {
	filter := map[string]any{
		"timestamp": map[string]any{"$gte": start, "$lte": end},
	}
	if platform != "" && platform != "all" {
		filter["source_platform"] = platform
	}
	return filter
}
