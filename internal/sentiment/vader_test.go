package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
)

func TestRemoveLinks(t *testing.T) {
	t.Run("keeps anchor text from markdown links", func(t *testing.T) {
		got := RemoveLinks("check [this thread](https://reddit.com/r/tmobile/abc) out")
		assert.Equal(t, "check this thread out", got)
	})

	t.Run("drops bare urls", func(t *testing.T) {
		got := RemoveLinks("see https://example.com/page for details")
		assert.NotContains(t, got, "example.com")
	})
}

func TestConvertMarkdownToText(t *testing.T) {
	got := ConvertMarkdownToText("**Terrible** service\n\n* dropped calls\n* slow data")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "*")
	assert.Contains(t, got, "Terrible")
	assert.Contains(t, got, "dropped calls")
}

func TestVaderAnalyzer(t *testing.T) {
	ctx := context.Background()
	analyzer := NewVaderAnalyzer()

	t.Run("positive text", func(t *testing.T) {
		s, err := analyzer.Analyze(ctx, "I absolutely love the new coverage, it is excellent and fast!")

		require.NoError(t, err)
		assert.Equal(t, models.SentimentPositive, s.Label)
		assert.GreaterOrEqual(t, s.SignedValue, 0.0)
	})

	t.Run("negative text", func(t *testing.T) {
		s, err := analyzer.Analyze(ctx, "This is horrible, the worst customer service I have ever had. Awful.")

		require.NoError(t, err)
		assert.Equal(t, models.SentimentNegative, s.Label)
		assert.LessOrEqual(t, s.SignedValue, 0.0)
	})

	t.Run("confidence stays within bounds", func(t *testing.T) {
		s, err := analyzer.Analyze(ctx, "amazing amazing amazing fantastic wonderful best ever!!!")

		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.Confidence, 0.0)
		assert.LessOrEqual(t, s.Confidence, 1.0)
	})

	t.Run("sign always matches label", func(t *testing.T) {
		for _, text := range []string{
			"meh", "ok I guess", "great phone", "terrible phone", "",
		} {
			s, err := analyzer.Analyze(ctx, text)
			require.NoError(t, err)
			if s.Label == models.SentimentPositive {
				assert.GreaterOrEqual(t, s.SignedValue, 0.0, text)
			} else {
				assert.LessOrEqual(t, s.SignedValue, 0.0, text)
			}
		}
	})
}
