package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

type fakeStore struct {
	existing   map[string]bool
	fetchErr   error
	upsertErr  error
	fetchCalls [][]string
	upserts    [][]models.VectorRecord
	matches    []vectorstore.Match
	queryErr   error
}

func (f *fakeStore) Upsert(_ context.Context, records []models.VectorRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	batch := make([]models.VectorRecord, len(records))
	copy(batch, records)
	f.upserts = append(f.upserts, batch)
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	for _, rec := range records {
		f.existing[rec.ID] = true
	}
	return nil
}

func (f *fakeStore) FetchExisting(_ context.Context, ids []string) ([]string, error) {
	f.fetchCalls = append(f.fetchCalls, ids)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var found []string
	for _, id := range ids {
		if f.existing[id] {
			found = append(found, id)
		}
	}
	return found, nil
}

func (f *fakeStore) Query(_ context.Context, _ vectorstore.Query) ([]vectorstore.Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func item(platform models.Platform, id string) models.FeedbackItem {
	return models.FeedbackItem{
		SourceID:       id,
		SourcePlatform: platform,
		Text:           "some feedback text about " + id,
	}
}

func TestVectorID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t,
			VectorID(models.PlatformReddit, "abc123"),
			VectorID(models.PlatformReddit, "abc123"))
	})

	t.Run("platforms do not collide", func(t *testing.T) {
		assert.NotEqual(t,
			VectorID(models.PlatformReddit, "abc123"),
			VectorID(models.PlatformPissedConsumer, "abc123"))
	})

	t.Run("hex md5 of platform underscore id", func(t *testing.T) {
		// Known digest for "reddit_x".
		assert.Len(t, VectorID(models.PlatformReddit, "x"), 32)
	})
}

func TestFilterNew(t *testing.T) {
	ctx := context.Background()

	t.Run("new count equals input minus existing", func(t *testing.T) {
		items := []models.FeedbackItem{
			item(models.PlatformReddit, "a"),
			item(models.PlatformReddit, "b"),
			item(models.PlatformReddit, "c"),
			item(models.PlatformReddit, "d"),
			item(models.PlatformReddit, "e"),
		}
		store := &fakeStore{existing: map[string]bool{
			VectorID(models.PlatformReddit, "a"): true,
			VectorID(models.PlatformReddit, "c"): true,
			VectorID(models.PlatformReddit, "e"): true,
		}}

		fresh, duplicates := NewDeduplicator(store, nil).FilterNew(ctx, items)

		assert.Equal(t, 3, duplicates)
		require.Len(t, fresh, 2)
		assert.Equal(t, "b", fresh[0].SourceID)
		assert.Equal(t, "d", fresh[1].SourceID)
	})

	t.Run("fetch failure treats batch as new", func(t *testing.T) {
		items := []models.FeedbackItem{
			item(models.PlatformReddit, "a"),
			item(models.PlatformReddit, "b"),
		}
		store := &fakeStore{fetchErr: errors.New("store unreachable")}

		fresh, duplicates := NewDeduplicator(store, nil).FilterNew(ctx, items)

		assert.Zero(t, duplicates)
		assert.Len(t, fresh, 2)
	})

	t.Run("existence checks are batched", func(t *testing.T) {
		var items []models.FeedbackItem
		for i := 0; i < 230; i++ {
			items = append(items, item(models.PlatformReddit, fmt.Sprintf("id-%d", i)))
		}
		store := &fakeStore{}

		NewDeduplicator(store, nil).FilterNew(ctx, items)

		require.Len(t, store.fetchCalls, 3)
		assert.Len(t, store.fetchCalls[0], 100)
		assert.Len(t, store.fetchCalls[1], 100)
		assert.Len(t, store.fetchCalls[2], 30)
	})

	t.Run("seen cache short circuits before the store", func(t *testing.T) {
		items := []models.FeedbackItem{
			item(models.PlatformReddit, "cached"),
			item(models.PlatformReddit, "new"),
		}
		store := &fakeStore{}
		seen := &fakeSeen{cached: map[string]bool{"reddit:cached": true}}

		fresh, duplicates := NewDeduplicator(store, seen).FilterNew(ctx, items)

		assert.Equal(t, 1, duplicates)
		require.Len(t, fresh, 1)
		assert.Equal(t, "new", fresh[0].SourceID)
		require.Len(t, store.fetchCalls, 1)
		assert.Len(t, store.fetchCalls[0], 1)
	})
}

type fakeSeen struct {
	cached map[string]bool
	marked []string
}

func (f *fakeSeen) IsSeen(_ context.Context, platform models.Platform, sourceID string) bool {
	return f.cached[string(platform)+":"+sourceID]
}

func (f *fakeSeen) MarkSeen(_ context.Context, platform models.Platform, sourceID string) error {
	f.marked = append(f.marked, string(platform)+":"+sourceID)
	return nil
}
