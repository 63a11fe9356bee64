package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"

	"github.com/feedbackpulse/feedbackpulse/internal/tools"
)

const (
	digestModel         = openai.ChatModelGPT4oMini
	digestRetryAttempts = 3
	digestRetryDelay    = 2 * time.Second
	digestWindowDays    = 7
)

const digestPrompt = `You are a customer sentiment analyst. Using ONLY the JSON data provided by the user, write a weekly digest of customer feedback suitable for business stakeholders.

The digest MUST include:
- Executive summary of overall sentiment trends from the past week
- Key themes and topics customers are discussing
- Sentiment statistics (positive percentage, negative percentage, average sentiment score)
- Notable complaints and praises with short quoted examples
- Platform breakdown
- Week-over-week trend (improving, declining, or stable)
- Actionable insights and recommendations

Format as plain text with clear section headings. Do not invent numbers that are not in the data. Do not use Markdown code fences.`

// Digest is a generated weekly report plus where it was archived.
type Digest struct {
	Content     string
	Path        string
	GeneratedAt time.Time
}

// Composer gathers a week of sentiment data through the query tools and asks
// an OpenAI chat model to write the stakeholder digest.
type Composer struct {
	service *tools.Service
	ai      *openai.Client
	outDir  string
	now     func() time.Time
}

func NewComposer(service *tools.Service, ai *openai.Client, outDir string) *Composer {
	if outDir == "" {
		outDir = "digests"
	}
	return &Composer{
		service: service,
		ai:      ai,
		outDir:  outDir,
		now:     time.Now,
	}
}

// Compose builds the weekly digest and archives it to a timestamped file.
func (c *Composer) Compose(ctx context.Context, searchQueries []string) (*Digest, error) {
	slog.Info("[Digest] Gathering weekly sentiment data")

	data := map[string]any{
		"summary":  c.service.GetSentimentSummary(ctx, "all", digestWindowDays, "platform"),
		"trending": c.service.GetTrendingTopics(ctx, "all", digestWindowDays, 3),
		"trend":    c.service.CompareSentiment(ctx, digestWindowDays, digestWindowDays, "all"),
	}

	searches := map[string]any{}
	for _, query := range searchQueries {
		searches[query] = c.service.SearchSentiment(ctx, query,
			tools.Filters{TimeframeDays: digestWindowDays}, 10)
	}
	if len(searches) > 0 {
		data["searches"] = searches
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshalling digest data: %w", err)
	}

	content, err := c.generate(ctx, string(payload))
	if err != nil {
		return nil, err
	}

	path, err := c.archive(content)
	if err != nil {
		return nil, err
	}

	slog.Info("[Digest] Digest generated", slog.String("path", path))
	return &Digest{
		Content:     content,
		Path:        path,
		GeneratedAt: c.now(),
	}, nil
}

func (c *Composer) generate(ctx context.Context, payload string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= digestRetryAttempts; attempt++ {
		completion, err := c.ai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(digestPrompt),
				openai.UserMessage(payload),
			}),
			Model:       openai.F(digestModel),
			Temperature: openai.Float(0.4),
		})
		if err != nil {
			lastErr = err
			slog.Warn("[Digest] OpenAI call failed, retrying",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(digestRetryDelay):
			}
			continue
		}

		if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
			lastErr = fmt.Errorf("empty completion response")
			slog.Warn("[Digest] OpenAI returned empty response, retrying",
				slog.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(digestRetryDelay):
			}
			continue
		}

		return cleanResponse(completion.Choices[0].Message.Content), nil
	}
	return "", fmt.Errorf("digest generation failed after %d attempts: %w", digestRetryAttempts, lastErr)
}

func (c *Composer) archive(content string) (string, error) {
	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating digest directory: %w", err)
	}

	now := c.now()
	path := filepath.Join(c.outDir, fmt.Sprintf("digest_%s.txt", now.Format("20060102_150405")))

	var b strings.Builder
	b.WriteString("Weekly Customer Sentiment Digest\n")
	b.WriteString("Generated: " + now.Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(strings.Repeat("=", 80) + "\n\n")
	b.WriteString(content)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing digest file: %w", err)
	}
	return path, nil
}

func cleanResponse(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```text")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
