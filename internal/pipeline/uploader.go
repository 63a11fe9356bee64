package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
	"github.com/feedbackpulse/feedbackpulse/internal/utils"
	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

// UploadBatchSize is the destination store's documented per-upsert maximum.
const UploadBatchSize = 96

// uploadDelay is the fixed pause between consecutive upsert batches.
const uploadDelay = 500 * time.Millisecond

// Uploader writes enriched records to the destination store in bounded
// sequential batches. A batch failure surfaces as a run-level error; batches
// already written stay committed (upsert is per-batch atomic, not
// transactional across the run).
type Uploader struct {
	store     vectorstore.Store
	seen      SeenCache
	batchSize int
	delay     time.Duration
}

func NewUploader(store vectorstore.Store, seen SeenCache) *Uploader {
	return &Uploader{
		store:     store,
		seen:      seen,
		batchSize: UploadBatchSize,
		delay:     uploadDelay,
	}
}

// Upload upserts the records and returns how many were written. On error the
// count covers the batches that committed before the failure.
func (u *Uploader) Upload(ctx context.Context, records []models.VectorRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	uploaded := 0
	batches := utils.Chunk(records, u.batchSize)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}

		if err := u.store.Upsert(ctx, batch); err != nil {
			return uploaded, fmt.Errorf("upsert batch %d/%d failed: %w", i+1, len(batches), err)
		}
		uploaded += len(batch)

		u.markSeen(ctx, batch)

		if i < len(batches)-1 {
			time.Sleep(u.delay)
		}
	}

	slog.Info("[Uploader] Upserted vectors",
		slog.Int("count", uploaded),
		slog.Int("batches", len(batches)))
	return uploaded, nil
}

func (u *Uploader) markSeen(ctx context.Context, batch []models.VectorRecord) {
	if u.seen == nil {
		return
	}
	for _, rec := range batch {
		platform, _ := rec.Metadata["source_platform"].(string)
		sourceID, _ := rec.Metadata["source_identifier"].(string)
		if platform == "" || sourceID == "" {
			continue
		}
		if err := u.seen.MarkSeen(ctx, models.Platform(platform), sourceID); err != nil {
			slog.Warn("[Uploader] Failed to mark item as seen",
				slog.String("source_id", sourceID),
				slog.String("error", err.Error()))
		}
	}
}
