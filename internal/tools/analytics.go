package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

// Aggregations run client-side over a zero-vector metadata scan. The store
// only answers similarity queries, so the scan is capped at the store's
// maximum page and results beyond it are silently truncated. Counts are
// therefore approximate for very large windows.

type PlatformStats struct {
	Count                 int     `json:"count"`
	Positive              int     `json:"positive"`
	Negative              int     `json:"negative"`
	PositivePercentage    float64 `json:"positive_percentage"`
	AverageSentimentScore float64 `json:"average_sentiment_score"`
}

type SummaryResult struct {
	Status
	TimeframeDays         int                      `json:"timeframe_days"`
	Platform              string                   `json:"platform"`
	TotalPosts            int                      `json:"total_posts"`
	PositiveCount         int                      `json:"positive_count"`
	NegativeCount         int                      `json:"negative_count"`
	PositivePercentage    float64                  `json:"positive_percentage"`
	NegativePercentage    float64                  `json:"negative_percentage"`
	AverageSentimentScore float64                  `json:"average_sentiment_score"`
	ByPlatform            map[string]PlatformStats `json:"by_platform,omitempty"`
}

// GetSentimentSummary aggregates sentiment counts and averages over the
// requested window, optionally grouped per platform.
func (s *Service) GetSentimentSummary(ctx context.Context, platform string, timeframeDays int, groupBy string) *SummaryResult {
	if timeframeDays <= 0 {
		timeframeDays = 30
	}
	if platform == "" {
		platform = "all"
	}

	result := &SummaryResult{
		TimeframeDays: timeframeDays,
		Platform:      platform,
	}

	matches, err := s.scan(ctx, buildFilter(Filters{Platform: platform, TimeframeDays: timeframeDays}, s.now()))
	if err != nil {
		result.Status = failed(err)
		return result
	}

	var (
		scoreSum float64
		perPlat  = map[string]*struct {
			count, positive, negative int
			scoreSum                  float64
		}{}
	)

	for _, m := range matches {
		label := mdString(m.Metadata, "sentiment_label")
		score := mdFloat(m.Metadata, "sentiment_score")
		plat := mdString(m.Metadata, "source_platform")

		result.TotalPosts++
		scoreSum += score
		switch label {
		case "POSITIVE":
			result.PositiveCount++
		case "NEGATIVE":
			result.NegativeCount++
		}

		if groupBy == "platform" {
			stats := perPlat[plat]
			if stats == nil {
				stats = &struct {
					count, positive, negative int
					scoreSum                  float64
				}{}
				perPlat[plat] = stats
			}
			stats.count++
			stats.scoreSum += score
			switch label {
			case "POSITIVE":
				stats.positive++
			case "NEGATIVE":
				stats.negative++
			}
		}
	}

	if result.TotalPosts > 0 {
		result.PositivePercentage = round2(float64(result.PositiveCount) / float64(result.TotalPosts) * 100)
		result.NegativePercentage = round2(float64(result.NegativeCount) / float64(result.TotalPosts) * 100)
		result.AverageSentimentScore = round4(scoreSum / float64(result.TotalPosts))
	}

	if groupBy == "platform" && len(perPlat) > 0 {
		result.ByPlatform = make(map[string]PlatformStats, len(perPlat))
		for plat, stats := range perPlat {
			result.ByPlatform[plat] = PlatformStats{
				Count:                 stats.count,
				Positive:              stats.positive,
				Negative:              stats.negative,
				PositivePercentage:    round2(float64(stats.positive) / float64(stats.count) * 100),
				AverageSentimentScore: round4(stats.scoreSum / float64(stats.count)),
			}
		}
	}

	result.Status = ok()
	return result
}

type PeriodStats struct {
	TotalPosts            int     `json:"total_posts"`
	PositiveCount         int     `json:"positive_count"`
	NegativeCount         int     `json:"negative_count"`
	PositivePercentage    float64 `json:"positive_percentage"`
	AverageSentimentScore float64 `json:"average_sentiment_score"`
}

type ComparePeriod struct {
	Days  int         `json:"days"`
	Label string      `json:"label"`
	Stats PeriodStats `json:"stats"`
}

type CompareChanges struct {
	SentimentScoreChange     float64 `json:"sentiment_score_change"`
	PositivePercentageChange float64 `json:"positive_percentage_change"`
	Trend                    string  `json:"trend"`
}

type CompareResult struct {
	Status
	Platform string         `json:"platform"`
	Period1  ComparePeriod  `json:"period1"`
	Period2  ComparePeriod  `json:"period2"`
	Changes  CompareChanges `json:"changes"`
}

// CompareSentiment contrasts the most recent period1Days window against the
// period2Days window immediately preceding it.
func (s *Service) CompareSentiment(ctx context.Context, period1Days, period2Days int, platform string) *CompareResult {
	if platform == "" {
		platform = "all"
	}
	result := &CompareResult{Platform: platform}

	if period1Days <= 0 || period2Days <= 0 {
		result.Status = failed(fmt.Errorf("both periods must be positive day counts"))
		return result
	}

	now := float64(s.now().Unix())
	daySecs := float64(24 * 60 * 60)

	recent, err := s.periodStats(ctx, windowFilter(platform, now-float64(period1Days)*daySecs, now))
	if err != nil {
		result.Status = failed(err)
		return result
	}
	older, err := s.periodStats(ctx, windowFilter(platform,
		now-float64(period1Days+period2Days)*daySecs,
		now-float64(period1Days)*daySecs))
	if err != nil {
		result.Status = failed(err)
		return result
	}

	result.Period1 = ComparePeriod{
		Days:  period1Days,
		Label: fmt.Sprintf("Last %d days", period1Days),
		Stats: recent,
	}
	result.Period2 = ComparePeriod{
		Days:  period2Days,
		Label: fmt.Sprintf("%d-%d days ago", period1Days, period1Days+period2Days),
		Stats: older,
	}

	scoreChange := recent.AverageSentimentScore - older.AverageSentimentScore
	trend := "stable"
	if scoreChange > 0 {
		trend = "improving"
	} else if scoreChange < 0 {
		trend = "declining"
	}
	result.Changes = CompareChanges{
		SentimentScoreChange:     round4(scoreChange),
		PositivePercentageChange: round2(recent.PositivePercentage - older.PositivePercentage),
		Trend:                    trend,
	}

	result.Status = ok()
	return result
}

func (s *Service) periodStats(ctx context.Context, filter map[string]any) (PeriodStats, error) {
	matches, err := s.scan(ctx, filter)
	if err != nil {
		return PeriodStats{}, err
	}

	var stats PeriodStats
	var scoreSum float64
	for _, m := range matches {
		stats.TotalPosts++
		scoreSum += mdFloat(m.Metadata, "sentiment_score")
		switch mdString(m.Metadata, "sentiment_label") {
		case "POSITIVE":
			stats.PositiveCount++
		case "NEGATIVE":
			stats.NegativeCount++
		}
	}
	if stats.TotalPosts > 0 {
		stats.PositivePercentage = round2(float64(stats.PositiveCount) / float64(stats.TotalPosts) * 100)
		stats.AverageSentimentScore = round4(scoreSum / float64(stats.TotalPosts))
	}
	return stats, nil
}

type TrendingTopic struct {
	Keyword          string  `json:"keyword"`
	Mentions         int     `json:"mentions"`
	AverageSentiment float64 `json:"average_sentiment"`
	SentimentLabel   string  `json:"sentiment_label"`
}

type TrendingResult struct {
	Status
	Platform           string          `json:"platform"`
	TimeframeDays      int             `json:"timeframe_days"`
	TotalPostsAnalyzed int             `json:"total_posts_analyzed"`
	TrendingTopics     []TrendingTopic `json:"trending_topics"`
}

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
		"of", "with", "by", "from", "is", "was", "are", "been", "be", "have",
		"has", "had", "do", "does", "did", "will", "would", "could", "should",
		"may", "might", "can", "this", "that", "these", "those", "i", "you",
		"he", "she", "it", "we", "they", "my", "your", "his", "her", "its",
		"our", "their", "me", "him", "them", "us",
	} {
		stopwords[w] = struct{}{}
	}
}

// GetTrendingTopics surfaces the most mentioned keywords in the window with
// the average sentiment of the posts mentioning them. Simple word frequency,
// not real topic modelling.
func (s *Service) GetTrendingTopics(ctx context.Context, platform string, timeframeDays, minMentions int) *TrendingResult {
	if platform == "" {
		platform = "all"
	}
	if timeframeDays <= 0 {
		timeframeDays = 7
	}
	if minMentions <= 0 {
		minMentions = 3
	}

	result := &TrendingResult{
		Platform:       platform,
		TimeframeDays:  timeframeDays,
		TrendingTopics: []TrendingTopic{},
	}

	matches, err := s.scan(ctx, buildFilter(Filters{Platform: platform, TimeframeDays: timeframeDays}, s.now()))
	if err != nil {
		result.Status = failed(err)
		return result
	}
	result.TotalPostsAnalyzed = len(matches)

	wordCounts := map[string]int{}
	wordScores := map[string]float64{}
	for _, m := range matches {
		text := strings.ToLower(mdString(m.Metadata, "text"))
		score := mdFloat(m.Metadata, "sentiment_score")
		for _, raw := range strings.Fields(text) {
			word := cleanWord(raw)
			if len(word) <= 3 {
				continue
			}
			if _, skip := stopwords[word]; skip {
				continue
			}
			wordCounts[word]++
			wordScores[word] += score
		}
	}

	type wordCount struct {
		word  string
		count int
	}
	ranked := make([]wordCount, 0, len(wordCounts))
	for word, count := range wordCounts {
		ranked = append(ranked, wordCount{word, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	for i, wc := range ranked {
		if i >= 20 {
			break
		}
		if wc.count < minMentions {
			continue
		}
		avg := wordScores[wc.word] / float64(wc.count)
		label := "negative"
		if avg > 0 {
			label = "positive"
		}
		result.TrendingTopics = append(result.TrendingTopics, TrendingTopic{
			Keyword:          wc.word,
			Mentions:         wc.count,
			AverageSentiment: round4(avg),
			SentimentLabel:   label,
		})
	}

	result.Status = ok()
	return result
}

func cleanWord(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// scan runs the zero-vector metadata query capped at the store maximum.
func (s *Service) scan(ctx context.Context, filter map[string]any) ([]vectorstore.Match, error) {
	matches, err := s.store.Query(ctx, vectorstore.Query{
		Vector:          vectorstore.ZeroVector(),
		TopK:            vectorstore.MaxTopK,
		Filter:          filter,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("scanning store: %w", err)
	}
	return matches, nil
}
