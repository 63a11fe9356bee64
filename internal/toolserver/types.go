package toolserver

// SearchSentimentInput defines inputs for the search_sentiment MCP tool.
type SearchSentimentInput struct {
	Query         string `json:"query" jsonschema:"natural language search query"`
	Platform      string `json:"platform,omitempty" jsonschema:"filter by platform (reddit, pissedconsumer, or all)"`
	TimeframeDays int    `json:"timeframe_days,omitempty" jsonschema:"limit to posts from the last N days"`
	Sentiment     string `json:"sentiment,omitempty" jsonschema:"filter by sentiment (positive, negative, or all)"`
	Limit         int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 10, max 50)"`
}

// SentimentSummaryInput defines inputs for the get_sentiment_summary MCP tool.
type SentimentSummaryInput struct {
	Platform      string `json:"platform,omitempty" jsonschema:"filter by platform (reddit, pissedconsumer, or all)"`
	TimeframeDays int    `json:"timeframe_days,omitempty" jsonschema:"number of days to analyze (default 30)"`
	GroupBy       string `json:"group_by,omitempty" jsonschema:"how to group results (platform or overall)"`
}

// CompareSentimentInput defines inputs for the compare_sentiment MCP tool.
type CompareSentimentInput struct {
	Period1Days int    `json:"period1_days" jsonschema:"recent period in days (e.g. last 7 days)"`
	Period2Days int    `json:"period2_days" jsonschema:"preceding period in days to compare against"`
	Platform    string `json:"platform,omitempty" jsonschema:"filter by platform (reddit, pissedconsumer, or all)"`
}

// TrendingTopicsInput defines inputs for the get_trending_topics MCP tool.
type TrendingTopicsInput struct {
	Platform      string `json:"platform,omitempty" jsonschema:"filter by platform (reddit, pissedconsumer, or all)"`
	TimeframeDays int    `json:"timeframe_days,omitempty" jsonschema:"time period to analyze (default 7)"`
	MinMentions   int    `json:"min_mentions,omitempty" jsonschema:"minimum mentions to be considered trending (default 3)"`
}

// RecentPostsInput defines inputs for the fetch_recent_posts MCP tool.
type RecentPostsInput struct {
	Platform      string `json:"platform,omitempty" jsonschema:"filter by platform (reddit, pissedconsumer, or all)"`
	Sentiment     string `json:"sentiment,omitempty" jsonschema:"filter by sentiment (positive, negative, or all)"`
	TimeframeDays int    `json:"timeframe_days,omitempty" jsonschema:"number of days to look back (default 7)"`
	PostType      string `json:"post_type,omitempty" jsonschema:"filter by type (post, comment, review)"`
	Limit         int    `json:"limit,omitempty" jsonschema:"maximum number of posts (default 20, max 100)"`
	SortBy        string `json:"sort_by,omitempty" jsonschema:"sort results by (timestamp, sentiment_score, upvotes)"`
}
