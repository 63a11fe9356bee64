package models

import "encoding/json"

// Reddit listing API wire format, shared by /new and /comments endpoints.

type RedditListing struct {
	Data RedditListingData `json:"data"`
}

type RedditListingData struct {
	After    string        `json:"after"`
	Children []RedditChild `json:"children"`
}

type RedditChild struct {
	Kind string          `json:"kind"`
	Data RedditChildData `json:"data"`
}

type RedditChildData struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Body        string  `json:"body"`
	Permalink   string  `json:"permalink"`
	Score       float64 `json:"score"`
	CreatedUTC  float64 `json:"created_utc"`
	NumComments int     `json:"num_comments"`
	// Replies is a nested listing for comments, or the empty string when the
	// comment has none, so it has to stay raw until inspected.
	Replies json.RawMessage `json:"replies,omitempty"`
}

// ReplyListing decodes the nested reply tree when present.
func (d *RedditChildData) ReplyListing() (*RedditListing, bool) {
	if len(d.Replies) == 0 || string(d.Replies) == `""` || string(d.Replies) == "null" {
		return nil, false
	}
	var listing RedditListing
	if err := json.Unmarshal(d.Replies, &listing); err != nil {
		return nil, false
	}
	return &listing, true
}
