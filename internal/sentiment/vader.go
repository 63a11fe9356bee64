package sentiment

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// RemoveLinks strips markdown links (keeping the anchor text) and bare URLs.
func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	input = urlPattern.ReplaceAllString(input, "")
	return input
}

// ConvertMarkdownToText renders markdown and collapses the result to plain
// whitespace-normalized text. Reddit content is usually markdown.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := strings.Join(strings.Fields(string(output)), " ")
	return RemoveLinks(plainText)
}

// VaderAnalyzer is the local fallback sentiment backend. The hosted model is
// binary, so compound scores are folded into POSITIVE/NEGATIVE: the neutral
// band keeps its (weak) sign so SignedValue always matches the label.
type VaderAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderAnalyzer() *VaderAnalyzer {
	return &VaderAnalyzer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Analyze scores one text. The confidence is the magnitude of the VADER
// compound score, clamped to [0,1].
func (v *VaderAnalyzer) Analyze(_ context.Context, text string) (models.Sentiment, error) {
	plainText := ConvertMarkdownToText(text)

	scores := v.analyzer.PolarityScores(plainText)
	compound := scores.Compound

	label := models.SentimentPositive
	if compound < 0 {
		label = models.SentimentNegative
	}

	confidence := math.Min(math.Abs(compound), 1)
	return models.NewSentiment(label, confidence), nil
}
