package enrich

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

type recordingAnalyzer struct {
	got string
	err error
}

func (r *recordingAnalyzer) Analyze(_ context.Context, text string) (models.Sentiment, error) {
	r.got = text
	if r.err != nil {
		return models.Sentiment{}, r.err
	}
	return models.NewSentiment(models.SentimentNegative, 0.8), nil
}

type recordingEmbedder struct {
	got    string
	vec    []float32
	err    error
	called bool
}

func (r *recordingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	r.called = true
	r.got = text
	if r.err != nil {
		return nil, r.err
	}
	return r.vec, nil
}

func rawVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = 0.5
	}
	return vec
}

func l2Norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func TestEnrich(t *testing.T) {
	ctx := context.Background()

	t.Run("truncates sentiment input but embeds full text", func(t *testing.T) {
		long := strings.Repeat("x", 2000)
		analyzer := &recordingAnalyzer{}
		embedder := &recordingEmbedder{vec: rawVector(vectorstore.Dimension)}

		_, _, err := NewEnricher(analyzer, embedder).Enrich(ctx, long)

		require.NoError(t, err)
		assert.Len(t, analyzer.got, MaxSentimentInput)
		assert.Equal(t, PassagePrefix+long, embedder.got)
	})

	t.Run("never splits a multi-byte rune when truncating", func(t *testing.T) {
		long := strings.Repeat("é", MaxSentimentInput+10)
		analyzer := &recordingAnalyzer{}
		embedder := &recordingEmbedder{vec: rawVector(vectorstore.Dimension)}

		_, _, err := NewEnricher(analyzer, embedder).Enrich(ctx, long)

		require.NoError(t, err)
		assert.True(t, utf8.ValidString(analyzer.got))
		assert.Equal(t, MaxSentimentInput, utf8.RuneCountInString(analyzer.got))
	})

	t.Run("returns a unit length embedding", func(t *testing.T) {
		analyzer := &recordingAnalyzer{}
		embedder := &recordingEmbedder{vec: rawVector(vectorstore.Dimension)}

		sentiment, embedding, err := NewEnricher(analyzer, embedder).Enrich(ctx, "service was slow")

		require.NoError(t, err)
		assert.InDelta(t, 1.0, l2Norm(embedding), 1e-4)
		assert.Equal(t, models.SentimentNegative, sentiment.Label)
	})

	t.Run("sentiment failure skips the embedder", func(t *testing.T) {
		analyzer := &recordingAnalyzer{err: errors.New("model down")}
		embedder := &recordingEmbedder{vec: rawVector(vectorstore.Dimension)}

		_, _, err := NewEnricher(analyzer, embedder).Enrich(ctx, "text")

		require.Error(t, err)
		assert.False(t, embedder.called)
	})

	t.Run("embedding failure returns no sentiment", func(t *testing.T) {
		analyzer := &recordingAnalyzer{}
		embedder := &recordingEmbedder{err: errors.New("model down")}

		sentiment, embedding, err := NewEnricher(analyzer, embedder).Enrich(ctx, "text")

		require.Error(t, err)
		assert.Empty(t, sentiment.Label)
		assert.Nil(t, embedding)
	})

	t.Run("rejects wrong dimension", func(t *testing.T) {
		analyzer := &recordingAnalyzer{}
		embedder := &recordingEmbedder{vec: rawVector(10)}

		_, _, err := NewEnricher(analyzer, embedder).Enrich(ctx, "text")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimensions")
	})
}

func TestNormalize(t *testing.T) {
	t.Run("scales to unit norm", func(t *testing.T) {
		out, err := Normalize([]float32{3, 4})

		require.NoError(t, err)
		assert.InDelta(t, 0.6, float64(out[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(out[1]), 1e-6)
	})

	t.Run("rejects zero vector", func(t *testing.T) {
		_, err := Normalize(make([]float32, 4))
		assert.Error(t, err)
	})
}

func TestSignedValueMatchesLabel(t *testing.T) {
	positive := models.NewSentiment(models.SentimentPositive, 0.75)
	assert.GreaterOrEqual(t, positive.SignedValue, 0.0)
	assert.Equal(t, 0.75, positive.SignedValue)

	negative := models.NewSentiment(models.SentimentNegative, 0.75)
	assert.LessOrEqual(t, negative.SignedValue, 0.0)
	assert.Equal(t, -0.75, negative.SignedValue)
}
