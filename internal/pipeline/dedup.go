package pipeline

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
	"github.com/feedbackpulse/feedbackpulse/internal/utils"
	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

// existenceBatchSize caps one Fetch call against the store.
const existenceBatchSize = 100

// VectorID derives the stable destination-store ID for an item. It is a pure
// string hash, so the same (platform, source_id) pair always yields the same
// ID on any host, and the same source_id on different platforms cannot
// collide.
func VectorID(platform models.Platform, sourceID string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s", platform, sourceID)))
	return hex.EncodeToString(sum[:])
}

// SeenCache is an optional fast-path in front of the store existence check.
type SeenCache interface {
	IsSeen(ctx context.Context, platform models.Platform, sourceID string) bool
	MarkSeen(ctx context.Context, platform models.Platform, sourceID string) error
}

// Deduplicator filters out items whose vector IDs already exist in the
// destination store, so enrichment is only paid for genuinely new items.
type Deduplicator struct {
	store vectorstore.Store
	seen  SeenCache
}

func NewDeduplicator(store vectorstore.Store, seen SeenCache) *Deduplicator {
	return &Deduplicator{store: store, seen: seen}
}

// ExistingIDs returns the subset of ids already present in the store,
// checking in batches. A failed batch is logged and treated as having no
// matches: the worst case is a redundant upsert, which is idempotent.
func (d *Deduplicator) ExistingIDs(ctx context.Context, ids []string) []string {
	var existing []string
	for _, batch := range utils.Chunk(ids, existenceBatchSize) {
		found, err := d.store.FetchExisting(ctx, batch)
		if err != nil {
			slog.Warn("[Dedup] Existence check failed for batch, assuming no matches",
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()))
			continue
		}
		existing = append(existing, found...)
	}
	return existing
}

// FilterNew returns the items not yet present in the store, in input order,
// along with the number filtered out as duplicates.
func (d *Deduplicator) FilterNew(ctx context.Context, items []models.FeedbackItem) ([]models.FeedbackItem, int) {
	var candidates []models.FeedbackItem
	cachedHits := 0

	if d.seen != nil {
		for _, item := range items {
			if d.seen.IsSeen(ctx, item.SourcePlatform, item.SourceID) {
				cachedHits++
				continue
			}
			candidates = append(candidates, item)
		}
	} else {
		candidates = items
	}

	ids := make([]string, len(candidates))
	for i, item := range candidates {
		ids[i] = VectorID(item.SourcePlatform, item.SourceID)
	}

	existingSet := make(map[string]bool)
	for _, id := range d.ExistingIDs(ctx, ids) {
		existingSet[id] = true
	}

	var fresh []models.FeedbackItem
	for i, item := range candidates {
		if existingSet[ids[i]] {
			continue
		}
		fresh = append(fresh, item)
	}

	duplicates := len(items) - len(fresh)
	if duplicates > 0 {
		slog.Info("[Dedup] Filtered out existing items",
			slog.Int("duplicates", duplicates),
			slog.Int("cached_hits", cachedHits),
			slog.Int("new", len(fresh)))
	}
	return fresh, duplicates
}
