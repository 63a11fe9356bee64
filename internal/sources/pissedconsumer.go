package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
	"github.com/feedbackpulse/feedbackpulse/internal/pipeline"
	"github.com/feedbackpulse/feedbackpulse/internal/utils"
)

const (
	PC_FIRST_RUN_PAGES   = 3
	PC_INCREMENTAL_PAGES = 10
	PC_PAGE_DELAY        = 2 * time.Second
	MIN_REVIEW_LENGTH    = 20
)

// reviewTimeFormats are tried in order when parsing the datetime attribute on
// a review's <time> element. Pages have shipped several variants over time.
var reviewTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 02, 2006",
}

var helpfulCountPattern = regexp.MustCompile(`\d+`)

// PissedConsumerSource scrapes paginated review listings for one business.
// The listing is newest-first, so scanning stops at the first page whose
// reviews are all older than the checkpoint.
type PissedConsumerSource struct {
	client   *http.Client
	baseURL  string
	business string
}

func NewPissedConsumerSource(client *http.Client, baseURL, business string) *PissedConsumerSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &PissedConsumerSource{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		business: business,
	}
}

func (s *PissedConsumerSource) Platform() models.Platform {
	return models.PlatformPissedConsumer
}

func (s *PissedConsumerSource) Keys() []string {
	return []string{s.business}
}

func (s *PissedConsumerSource) FetchSince(ctx context.Context, key string, since float64) ([]models.FeedbackItem, pipeline.FetchReport, error) {
	maxPages := PC_INCREMENTAL_PAGES
	if since == 0 {
		maxPages = PC_FIRST_RUN_PAGES
	}

	var (
		items  []models.FeedbackItem
		report pipeline.FetchReport
	)

	for page := 1; page <= maxPages; page++ {
		doc, err := s.fetchPage(ctx, page)
		if err != nil {
			if page == 1 {
				return nil, report, fmt.Errorf("fetching review page 1: %w", err)
			}
			slog.Warn("[PissedConsumerSource] Page fetch failed, keeping partial results",
				slog.Int("page", page),
				slog.String("error", err.Error()))
			report.Errors++
			break
		}
		report.PagesScanned++

		containers := doc.Find(`div.f-component-item[id^="review-"]`)
		if containers.Length() == 0 {
			slog.Info("[PissedConsumerSource] No review containers on page, stopping",
				slog.Int("page", page))
			break
		}

		newOnPage := 0
		containers.Each(func(_ int, sel *goquery.Selection) {
			item, ok := s.parseReview(sel)
			if !ok {
				report.Skipped++
				return
			}
			if item.CreatedAt <= since {
				return
			}
			newOnPage++
			items = append(items, item)
		})

		if newOnPage == 0 {
			break
		}

		if page < maxPages {
			select {
			case <-ctx.Done():
				return items, report, ctx.Err()
			case <-time.After(PC_PAGE_DELAY):
			}
		}
	}

	slog.Info("[PissedConsumerSource] Review scan complete",
		slog.String("business", s.business),
		slog.Int("items", len(items)),
		slog.Int("pages", report.PagesScanned))
	return items, report, nil
}

func (s *PissedConsumerSource) fetchPage(ctx context.Context, page int) (*goquery.Document, error) {
	pageURL := fmt.Sprintf("%s/review.html?page=%d", s.baseURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; feedbackpulse/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

func (s *PissedConsumerSource) parseReview(sel *goquery.Selection) (models.FeedbackItem, bool) {
	id, _ := sel.Attr("id")
	reviewID := strings.TrimPrefix(id, "review-")
	if reviewID == "" || reviewID == id {
		return models.FeedbackItem{}, false
	}

	text := strings.TrimSpace(sel.Find("div.f-component-text").First().Text())
	if len(text) < MIN_REVIEW_LENGTH {
		return models.FeedbackItem{}, false
	}

	title, _ := sel.Attr("aria-label")
	title = strings.TrimSpace(title)

	author := strings.TrimSpace(sel.Find(`[itemprop="author"] [itemprop="name"]`).First().Text())
	if author == "" {
		author = "Anonymous"
	}

	createdAt := parseReviewTime(sel)

	var rating float64
	if raw, ok := sel.Find(`meta[itemprop="ratingValue"]`).First().Attr("content"); ok {
		rating, _ = strconv.ParseFloat(strings.TrimSpace(raw), 64)
	}

	var helpful float64
	sel.Find("button").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		label := strings.ToLower(b.Text())
		if !strings.Contains(label, "helpful") && !strings.Contains(label, "useful") {
			return true
		}
		if m := helpfulCountPattern.FindString(b.Text()); m != "" {
			helpful, _ = strconv.ParseFloat(m, 64)
		}
		return false
	})

	reviewURL := fmt.Sprintf("%s/review.html#review-%s", s.baseURL, reviewID)
	if dataID, ok := sel.Attr("data-id"); ok && strings.TrimSpace(dataID) != "" {
		reviewURL = fmt.Sprintf("%s/%s/review-%s", s.baseURL, s.business, strings.TrimSpace(dataID))
	}

	location := utils.ParseAuthorLocation(strings.TrimSpace(sel.Find(".location-line").First().Text()))
	if location == nil {
		location = utils.ExtractLocation(text)
	}

	fullText := text
	if title != "" {
		fullText = title + "\n\n" + text
	}

	return models.FeedbackItem{
		SourceID:       reviewID,
		SourcePlatform: models.PlatformPissedConsumer,
		PostType:       models.PostTypeReview,
		Text:           fullText,
		Title:          title,
		Author:         author,
		URL:            reviewURL,
		CreatedAt:      createdAt,
		Upvotes:        helpful,
		Rating:         rating,
		BusinessName:   s.business,
		Location:       location,
	}, true
}

// parseReviewTime reads the review's <time datetime> attribute, falling back
// to the element text and finally the current time so the item is never
// dropped over an unparseable date.
func parseReviewTime(sel *goquery.Selection) float64 {
	timeEl := sel.Find("time").First()
	candidates := []string{}
	if dt, ok := timeEl.Attr("datetime"); ok {
		candidates = append(candidates, strings.TrimSpace(dt))
	}
	candidates = append(candidates, strings.TrimSpace(timeEl.Text()))

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for _, format := range reviewTimeFormats {
			if t, err := time.Parse(format, candidate); err == nil {
				return float64(t.Unix())
			}
		}
	}
	return float64(time.Now().Unix())
}
