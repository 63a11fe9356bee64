package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/feedbackpulse/feedbackpulse/internal/clients"
	"github.com/feedbackpulse/feedbackpulse/internal/models"
	"github.com/feedbackpulse/feedbackpulse/internal/pipeline"
	"github.com/feedbackpulse/feedbackpulse/internal/utils"
)

const (
	REDDIT_FIRST_RUN_LIMIT   = 20
	REDDIT_INCREMENTAL_LIMIT = 100
	REDDIT_PAGE_SIZE         = 100
	MIN_POST_TEXT_LENGTH     = 10
	MIN_COMMENT_TEXT_LENGTH  = 10
)

// RedditSource pulls new submissions (and their comment trees) from a set of
// subreddits through the authenticated Reddit API client.
type RedditSource struct {
	client     *clients.RedditClient
	subreddits []string
}

func NewRedditSource(client *clients.RedditClient, subreddits []string) *RedditSource {
	return &RedditSource{
		client:     client,
		subreddits: subreddits,
	}
}

func (s *RedditSource) Platform() models.Platform {
	return models.PlatformReddit
}

func (s *RedditSource) Keys() []string {
	return s.subreddits
}

// FetchSince walks /r/{sub}/new newest-first and keeps submissions created
// after the since timestamp. Pagination stops once a page contributes nothing
// newer or the per-run submission cap is hit. since == 0 means no state exists
// for the subreddit yet, so the initial scan is kept small.
func (s *RedditSource) FetchSince(ctx context.Context, subreddit string, since float64) ([]models.FeedbackItem, pipeline.FetchReport, error) {
	limit := REDDIT_INCREMENTAL_LIMIT
	if since == 0 {
		limit = REDDIT_FIRST_RUN_LIMIT
	}

	var (
		items  []models.FeedbackItem
		report pipeline.FetchReport
		after  string
		posts  int
	)

	for posts < limit {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(REDDIT_PAGE_SIZE))
		if after != "" {
			query.Set("after", after)
		}

		body, err := s.client.GetJSON(ctx, fmt.Sprintf("/r/%s/new", subreddit), query)
		if err != nil {
			if posts == 0 {
				return nil, report, fmt.Errorf("fetching /r/%s/new: %w", subreddit, err)
			}
			slog.Warn("[RedditSource] Page fetch failed mid-scan, keeping partial results",
				slog.String("subreddit", subreddit),
				slog.String("error", err.Error()))
			report.Errors++
			break
		}
		report.PagesScanned++

		var listing models.RedditListing
		if err := json.Unmarshal(body, &listing); err != nil {
			return nil, report, fmt.Errorf("decoding /r/%s/new listing: %w", subreddit, err)
		}

		newOnPage := 0
		for _, child := range listing.Data.Children {
			post := child.Data
			if post.CreatedUTC <= since {
				continue
			}
			newOnPage++
			posts++

			item, ok := s.postToItem(post)
			if !ok {
				report.Skipped++
			} else {
				items = append(items, item)
			}

			comments, skipped := s.fetchComments(ctx, subreddit, post.ID)
			items = append(items, comments...)
			report.Skipped += skipped

			if posts >= limit {
				break
			}
		}

		if newOnPage == 0 || listing.Data.After == "" {
			break
		}
		after = listing.Data.After

		select {
		case <-ctx.Done():
			return items, report, ctx.Err()
		case <-time.After(clients.RATE_LIMIT_DELAY):
		}
	}

	slog.Info("[RedditSource] Subreddit scan complete",
		slog.String("subreddit", subreddit),
		slog.Int("items", len(items)),
		slog.Int("pages", report.PagesScanned))
	return items, report, nil
}

func (s *RedditSource) postToItem(post models.RedditChildData) (models.FeedbackItem, bool) {
	if isDeletedAuthor(post.Author) {
		return models.FeedbackItem{}, false
	}

	text := post.Title
	if strings.TrimSpace(post.Selftext) != "" {
		text = post.Title + "\n\n" + post.Selftext
	}
	if len(strings.TrimSpace(text)) < MIN_POST_TEXT_LENGTH {
		return models.FeedbackItem{}, false
	}

	return models.FeedbackItem{
		SourceID:       post.ID,
		SourcePlatform: models.PlatformReddit,
		PostType:       models.PostTypePost,
		Text:           text,
		Title:          post.Title,
		Author:         post.Author,
		URL:            "https://www.reddit.com" + post.Permalink,
		CreatedAt:      post.CreatedUTC,
		Upvotes:        post.Score,
		Subreddit:      post.Subreddit,
		Location:       utils.ExtractLocation(text),
	}, true
}

// fetchComments pulls the comment tree for a submission. Comment failures are
// soft: the submission itself is already captured, so a failed tree just logs.
func (s *RedditSource) fetchComments(ctx context.Context, subreddit, postID string) ([]models.FeedbackItem, int) {
	body, err := s.client.GetJSON(ctx, fmt.Sprintf("/r/%s/comments/%s", subreddit, postID), url.Values{"limit": {"100"}})
	if err != nil {
		slog.Warn("[RedditSource] Failed to fetch comments",
			slog.String("post_id", postID),
			slog.String("error", err.Error()))
		return nil, 0
	}

	// The comments endpoint returns a two-element array: the submission
	// listing followed by the top-level comment listing.
	var listings []models.RedditListing
	if err := json.Unmarshal(body, &listings); err != nil || len(listings) < 2 {
		slog.Warn("[RedditSource] Unexpected comments payload",
			slog.String("post_id", postID))
		return nil, 0
	}

	var (
		items   []models.FeedbackItem
		skipped int
	)
	s.walkComments(listings[1].Data.Children, subreddit, postID, &items, &skipped)
	return items, skipped
}

func (s *RedditSource) walkComments(children []models.RedditChild, subreddit, postID string, items *[]models.FeedbackItem, skipped *int) {
	for _, child := range children {
		if child.Kind != "t1" {
			continue
		}
		comment := child.Data

		if isDeletedAuthor(comment.Author) || isDeletedBody(comment.Body) ||
			len(strings.TrimSpace(comment.Body)) < MIN_COMMENT_TEXT_LENGTH {
			*skipped++
		} else {
			*items = append(*items, models.FeedbackItem{
				SourceID:       comment.ID,
				SourcePlatform: models.PlatformReddit,
				PostType:       models.PostTypeComment,
				Text:           comment.Body,
				Author:         comment.Author,
				URL:            "https://www.reddit.com" + comment.Permalink,
				CreatedAt:      comment.CreatedUTC,
				Upvotes:        comment.Score,
				Subreddit:      subreddit,
				ParentID:       postID,
				Location:       utils.ExtractLocation(comment.Body),
			})
		}

		if replies, ok := comment.ReplyListing(); ok {
			s.walkComments(replies.Data.Children, subreddit, postID, items, skipped)
		}
	}
}

func isDeletedAuthor(author string) bool {
	return author == "" || author == "[deleted]"
}

func isDeletedBody(body string) bool {
	return body == "[deleted]" || body == "[removed]"
}
