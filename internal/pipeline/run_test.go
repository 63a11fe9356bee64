package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackpulse/feedbackpulse/internal/enrich"
	"github.com/feedbackpulse/feedbackpulse/internal/models"
	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

type fakeSource struct {
	keys      []string
	items     map[string][]models.FeedbackItem
	errs      map[string]error
	seenSince map[string]float64
}

func (f *fakeSource) Platform() models.Platform { return models.PlatformReddit }

func (f *fakeSource) Keys() []string { return f.keys }

func (f *fakeSource) FetchSince(_ context.Context, key string, since float64) ([]models.FeedbackItem, FetchReport, error) {
	if f.seenSince == nil {
		f.seenSince = make(map[string]float64)
	}
	f.seenSince[key] = since
	if err := f.errs[key]; err != nil {
		return nil, FetchReport{}, err
	}
	return f.items[key], FetchReport{}, nil
}

type stubAnalyzer struct {
	failText string
}

func (s stubAnalyzer) Analyze(_ context.Context, text string) (models.Sentiment, error) {
	if s.failText != "" && text == s.failText {
		return models.Sentiment{}, errors.New("model error")
	}
	return models.NewSentiment(models.SentimentPositive, 0.9), nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	vec := make([]float32, vectorstore.Dimension)
	vec[0] = 1
	return vec, nil
}

func newTestRunner(t *testing.T, source Source, store vectorstore.Store, analyzer enrich.Analyzer) (*Runner, *CheckpointStore) {
	t.Helper()
	cp := LoadCheckpoints(filepath.Join(t.TempDir(), "state.json"))
	runner := NewRunner(source, cp,
		NewDeduplicator(store, nil),
		enrich.NewEnricher(analyzer, stubEmbedder{}),
		NewUploader(store, nil))
	runner.now = func() time.Time { return time.Unix(1700000000, 0) }
	return runner, cp
}

func sourceItems(n int) []models.FeedbackItem {
	items := make([]models.FeedbackItem, n)
	for i := range items {
		items[i] = item(models.PlatformReddit, fmt.Sprintf("post-%d", i))
	}
	return items
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("first run uploads everything and sets checkpoint to run start", func(t *testing.T) {
		source := &fakeSource{
			keys:  []string{"tmobile"},
			items: map[string][]models.FeedbackItem{"tmobile": sourceItems(5)},
		}
		store := &fakeStore{}
		runner, cp := newTestRunner(t, source, store, stubAnalyzer{})

		stats, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, StateDone, stats.State)
		assert.Equal(t, 5, stats.Collected)
		assert.Equal(t, 5, stats.Enriched)
		assert.Equal(t, 5, stats.Uploaded)
		assert.Zero(t, stats.Duplicates)
		assert.Zero(t, stats.Errors)

		// The source saw a first run.
		assert.Equal(t, float64(0), source.seenSince["tmobile"])

		ts, ok := cp.Get("tmobile")
		require.True(t, ok)
		assert.Equal(t, float64(1700000000), ts)
	})

	t.Run("second run skips items already stored", func(t *testing.T) {
		items := sourceItems(5)
		source := &fakeSource{
			keys:  []string{"tmobile"},
			items: map[string][]models.FeedbackItem{"tmobile": items},
		}
		store := &fakeStore{existing: map[string]bool{
			VectorID(models.PlatformReddit, "post-0"): true,
			VectorID(models.PlatformReddit, "post-2"): true,
			VectorID(models.PlatformReddit, "post-4"): true,
		}}
		runner, _ := newTestRunner(t, source, store, stubAnalyzer{})

		stats, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 5, stats.Collected)
		assert.Equal(t, 3, stats.Duplicates)
		assert.Equal(t, 2, stats.Uploaded)
	})

	t.Run("enrichment failure drops the item and continues", func(t *testing.T) {
		items := sourceItems(10)
		source := &fakeSource{
			keys:  []string{"tmobile"},
			items: map[string][]models.FeedbackItem{"tmobile": items},
		}
		store := &fakeStore{}
		runner, _ := newTestRunner(t, source, store,
			stubAnalyzer{failText: items[3].Text})

		stats, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, StateDone, stats.State)
		assert.Equal(t, 9, stats.Uploaded)
		assert.Equal(t, 1, stats.Errors)
	})

	t.Run("empty window still advances the checkpoint", func(t *testing.T) {
		source := &fakeSource{keys: []string{"tmobile"}}
		runner, cp := newTestRunner(t, source, &fakeStore{}, stubAnalyzer{})

		stats, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, StateDone, stats.State)
		assert.Zero(t, stats.Uploaded)

		ts, ok := cp.Get("tmobile")
		require.True(t, ok)
		assert.Equal(t, float64(1700000000), ts)
	})

	t.Run("one failing key does not fail the run", func(t *testing.T) {
		source := &fakeSource{
			keys:  []string{"tmobile", "verizon"},
			items: map[string][]models.FeedbackItem{"tmobile": sourceItems(2)},
			errs:  map[string]error{"verizon": errors.New("rate limited")},
		}
		runner, _ := newTestRunner(t, source, &fakeStore{}, stubAnalyzer{})

		stats, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, StateDone, stats.State)
		assert.Equal(t, 2, stats.Uploaded)
		assert.Equal(t, 1, stats.Errors)
	})

	t.Run("all keys failing fails the run", func(t *testing.T) {
		source := &fakeSource{
			keys: []string{"tmobile", "verizon"},
			errs: map[string]error{
				"tmobile": errors.New("down"),
				"verizon": errors.New("down"),
			},
		}
		runner, cp := newTestRunner(t, source, &fakeStore{}, stubAnalyzer{})

		stats, err := runner.Run(ctx)

		require.Error(t, err)
		assert.Equal(t, StateFailed, stats.State)
		_, ok := cp.Get("tmobile")
		assert.False(t, ok)
	})

	t.Run("upload failure fails the run without checkpointing", func(t *testing.T) {
		source := &fakeSource{
			keys:  []string{"tmobile"},
			items: map[string][]models.FeedbackItem{"tmobile": sourceItems(3)},
		}
		store := &failAfterStore{failAfter: 0}
		runner, cp := newTestRunner(t, source, store, stubAnalyzer{})

		stats, err := runner.Run(ctx)

		require.Error(t, err)
		assert.Equal(t, StateFailed, stats.State)
		_, ok := cp.Get("tmobile")
		assert.False(t, ok)
	})

	t.Run("incremental run passes the stored checkpoint to the source", func(t *testing.T) {
		source := &fakeSource{keys: []string{"tmobile"}}
		runner, cp := newTestRunner(t, source, &fakeStore{}, stubAnalyzer{})
		cp.Advance("tmobile", 1690000000)

		_, err := runner.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, float64(1690000000), source.seenSince["tmobile"])
	})
}
