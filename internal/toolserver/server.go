package toolserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/feedbackpulse/feedbackpulse/internal/tools"
)

// Server exposes the feedback query tools over MCP stdio so an LLM agent can
// call them. Tool handlers never return an error for query failures; the
// result envelope carries the error so the agent always gets a parseable
// response.
type Server struct {
	service *tools.Service
	version string
}

func New(service *tools.Service, version string) *Server {
	return &Server{
		service: service,
		version: version,
	}
}

// Run starts the MCP stdio server and blocks until the transport closes.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "feedbackpulse",
		Title:   "FeedbackPulse",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_sentiment",
		Description: "Semantic search across customer feedback, optionally filtered by platform, sentiment, and recency.",
	}, s.searchSentiment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_sentiment_summary",
		Description: "Aggregated sentiment statistics (counts, percentages, average score) for a time window, optionally grouped by platform.",
	}, s.sentimentSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_sentiment",
		Description: "Compare sentiment between the most recent period and the period immediately before it, with an improving/declining/stable trend.",
	}, s.compareSentiment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_trending_topics",
		Description: "Most mentioned keywords in recent feedback with the average sentiment of the posts mentioning them.",
	}, s.trendingTopics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_recent_posts",
		Description: "List recent feedback posts sorted by recency, sentiment magnitude, or upvotes.",
	}, s.recentPosts)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) searchSentiment(ctx context.Context, _ *mcp.CallToolRequest, input SearchSentimentInput) (*mcp.CallToolResult, *tools.SearchResult, error) {
	result := s.service.SearchSentiment(ctx, input.Query, tools.Filters{
		Platform:      input.Platform,
		TimeframeDays: input.TimeframeDays,
		Sentiment:     input.Sentiment,
	}, input.Limit)
	return nil, result, nil
}

func (s *Server) sentimentSummary(ctx context.Context, _ *mcp.CallToolRequest, input SentimentSummaryInput) (*mcp.CallToolResult, *tools.SummaryResult, error) {
	result := s.service.GetSentimentSummary(ctx, input.Platform, input.TimeframeDays, input.GroupBy)
	return nil, result, nil
}

func (s *Server) compareSentiment(ctx context.Context, _ *mcp.CallToolRequest, input CompareSentimentInput) (*mcp.CallToolResult, *tools.CompareResult, error) {
	result := s.service.CompareSentiment(ctx, input.Period1Days, input.Period2Days, input.Platform)
	return nil, result, nil
}

func (s *Server) trendingTopics(ctx context.Context, _ *mcp.CallToolRequest, input TrendingTopicsInput) (*mcp.CallToolResult, *tools.TrendingResult, error) {
	result := s.service.GetTrendingTopics(ctx, input.Platform, input.TimeframeDays, input.MinMentions)
	return nil, result, nil
}

func (s *Server) recentPosts(ctx context.Context, _ *mcp.CallToolRequest, input RecentPostsInput) (*mcp.CallToolResult, *tools.RecentPostsResult, error) {
	result := s.service.FetchRecentPosts(ctx, tools.Filters{
		Platform:      input.Platform,
		Sentiment:     input.Sentiment,
		TimeframeDays: input.TimeframeDays,
		PostType:      input.PostType,
	}, input.Limit, input.SortBy)
	return nil, result, nil
}
