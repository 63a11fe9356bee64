package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedbackpulse/feedbackpulse/internal/enrich"
	"github.com/feedbackpulse/feedbackpulse/internal/models"
)

// State tracks where a run is in its lifecycle.
type State string

const (
	StateInit          State = "INIT"
	StateFetching      State = "FETCHING"
	StateDeduping      State = "DEDUPING"
	StateEnriching     State = "ENRICHING"
	StateUploading     State = "UPLOADING"
	StateCheckpointing State = "CHECKPOINTING"
	StateDone          State = "DONE"
	StateFailed        State = "FAILED"
)

// FetchReport carries per-key fetch counters back from a source.
type FetchReport struct {
	PagesScanned int
	Skipped      int
	Errors       int
}

// Source is one feedback platform the pipeline can ingest from. FetchSince
// returns raw (unenriched) items newer than the since timestamp; since == 0
// signals a first run and widens the initial scan.
type Source interface {
	Platform() models.Platform
	Keys() []string
	FetchSince(ctx context.Context, key string, since float64) ([]models.FeedbackItem, FetchReport, error)
}

// RunStats is the run summary printed (as JSON) at the end of each scrape.
type RunStats struct {
	Platform      models.Platform `json:"platform"`
	State         State           `json:"state"`
	KeysProcessed int             `json:"keys_processed"`
	Collected     int             `json:"collected"`
	Duplicates    int             `json:"duplicates"`
	Enriched      int             `json:"enriched"`
	Uploaded      int             `json:"uploaded"`
	Skipped       int             `json:"skipped"`
	Errors        int             `json:"errors"`
	StartedAt     float64         `json:"timestamp"`
	Datetime      string          `json:"datetime"`
	ExecutionSecs float64         `json:"execution_time"`
}

// Runner sequences one checkpointed incremental ingestion run:
// fetch, dedup, enrich, upload, checkpoint. Per-item failures are counted
// and skipped; only unrecoverable errors (every key failing to fetch, or an
// upload batch failing) end the run in FAILED.
type Runner struct {
	source      Source
	checkpoints *CheckpointStore
	dedup       *Deduplicator
	enricher    *enrich.Enricher
	uploader    *Uploader
	now         func() time.Time
}

func NewRunner(source Source, checkpoints *CheckpointStore, dedup *Deduplicator, enricher *enrich.Enricher, uploader *Uploader) *Runner {
	return &Runner{
		source:      source,
		checkpoints: checkpoints,
		dedup:       dedup,
		enricher:    enricher,
		uploader:    uploader,
		now:         time.Now,
	}
}

func (r *Runner) Run(ctx context.Context) (*RunStats, error) {
	start := r.now()
	runStart := float64(start.Unix())

	stats := &RunStats{
		Platform:  r.source.Platform(),
		State:     StateInit,
		StartedAt: runStart,
		Datetime:  start.UTC().Format(time.RFC3339),
	}
	defer func() {
		stats.ExecutionSecs = r.now().Sub(start).Seconds()
	}()

	slog.Info("[Runner] Starting incremental run",
		slog.String("platform", string(stats.Platform)))

	// FETCHING
	stats.State = StateFetching
	keys := r.source.Keys()
	var collected []models.FeedbackItem
	fetchFailures := 0

	for _, key := range keys {
		since, ok := r.checkpoints.Get(key)
		if !ok {
			slog.Info("[Runner] No previous state for key, starting fresh",
				slog.String("key", key))
			since = 0
		}

		items, report, err := r.source.FetchSince(ctx, key, since)
		stats.Skipped += report.Skipped
		stats.Errors += report.Errors
		if err != nil {
			slog.Error("[Runner] Fetch failed for key",
				slog.String("key", key),
				slog.String("error", err.Error()))
			fetchFailures++
			stats.Errors++
			continue
		}

		collected = append(collected, items...)
		stats.KeysProcessed++
	}
	stats.Collected = len(collected)

	if fetchFailures == len(keys) && len(keys) > 0 {
		stats.State = StateFailed
		return stats, fmt.Errorf("fetch failed for all %d source keys", len(keys))
	}

	// DEDUPING comes before enrichment so model inference is only spent on
	// genuinely new items.
	stats.State = StateDeduping
	fresh, duplicates := r.dedup.FilterNew(ctx, collected)
	stats.Duplicates = duplicates

	// ENRICHING
	stats.State = StateEnriching
	records := make([]models.VectorRecord, 0, len(fresh))
	for _, item := range fresh {
		sentiment, embedding, err := r.enricher.Enrich(ctx, item.Text)
		if err != nil {
			slog.Warn("[Runner] Enrichment failed, dropping item",
				slog.String("source_id", item.SourceID),
				slog.String("error", err.Error()))
			stats.Errors++
			continue
		}

		item.Sentiment = sentiment
		item.Embedding = embedding
		records = append(records, models.VectorRecord{
			ID:       VectorID(item.SourcePlatform, item.SourceID),
			Values:   embedding,
			Metadata: item.Metadata(),
		})
	}
	stats.Enriched = len(records)

	// UPLOADING
	stats.State = StateUploading
	uploaded, err := r.uploader.Upload(ctx, records)
	stats.Uploaded = uploaded
	if err != nil {
		stats.State = StateFailed
		return stats, fmt.Errorf("upload failed: %w", err)
	}

	// CHECKPOINTING: every processed key advances to the run-start time, so
	// items created mid-run are re-scanned next time and an empty window does
	// not get re-scanned forever.
	stats.State = StateCheckpointing
	for _, key := range keys {
		r.checkpoints.Advance(key, runStart)
	}
	if err := r.checkpoints.Save(); err != nil {
		slog.Error("[Runner] Failed to save checkpoint state",
			slog.String("error", err.Error()))
		stats.Errors++
	}

	stats.State = StateDone
	slog.Info("[Runner] Run complete",
		slog.String("platform", string(stats.Platform)),
		slog.Int("collected", stats.Collected),
		slog.Int("uploaded", stats.Uploaded),
		slog.Int("errors", stats.Errors))
	return stats, nil
}
