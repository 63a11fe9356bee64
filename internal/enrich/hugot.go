package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
)

const (
	sentimentModelID = "distilbert-base-uncased-finetuned-sst-2-english"
	embeddingModelID = "intfloat/e5-base-v2"
)

// LocalEnricher runs the sentiment and embedding models in-process through an
// ONNX runtime session, for hosts where the HTTP enrichment service is not
// available. Models are downloaded on first use.
type LocalEnricher struct {
	session   *hugot.Session
	sentiment *pipelines.TextClassificationPipeline
	embedding *pipelines.FeatureExtractionPipeline
}

func NewLocalEnricher(modelDir string) (*LocalEnricher, error) {
	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("[LocalEnricher] failed to create model directory: %w", err)
	}

	sentimentPath, err := ensureModel(sentimentModelID, modelDir)
	if err != nil {
		return nil, err
	}
	embeddingPath, err := ensureModel(embeddingModelID, modelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("[LocalEnricher] failed to initialize session: %w", err)
	}

	sentimentPipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: sentimentPath,
		Name:      "sentimentPipeline",
	})
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("[LocalEnricher] failed to initialize sentiment pipeline: %w", err)
	}

	embeddingPipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: embeddingPath,
		Name:      "embeddingPipeline",
	})
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("[LocalEnricher] failed to initialize embedding pipeline: %w", err)
	}

	return &LocalEnricher{
		session:   session,
		sentiment: sentimentPipeline,
		embedding: embeddingPipeline,
	}, nil
}

func ensureModel(modelID, modelDir string) (string, error) {
	localPath := filepath.Join(modelDir, filepath.Base(modelID))
	if _, err := os.Stat(localPath); err == nil {
		slog.Info("[LocalEnricher] Using existing model", slog.String("path", localPath))
		return localPath, nil
	}

	slog.Info("[LocalEnricher] Model not found, downloading...",
		slog.String("model", modelID))
	downloaded, err := hugot.DownloadModel(modelID, modelDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("[LocalEnricher] failed to download %s: %w", modelID, err)
	}
	slog.Info("[LocalEnricher] Model downloaded", slog.String("path", downloaded))
	return downloaded, nil
}

func (l *LocalEnricher) Analyze(_ context.Context, text string) (models.Sentiment, error) {
	output, err := l.sentiment.RunPipeline([]string{text})
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("[LocalEnricher] sentiment inference failed: %w", err)
	}

	if len(output.ClassificationOutputs) == 0 || len(output.ClassificationOutputs[0]) == 0 {
		return models.Sentiment{}, fmt.Errorf("[LocalEnricher] sentiment pipeline returned no output")
	}

	best := output.ClassificationOutputs[0][0]
	for _, candidate := range output.ClassificationOutputs[0][1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}

	return models.NewSentiment(best.Label, float64(best.Score)), nil
}

func (l *LocalEnricher) Embed(_ context.Context, text string) ([]float32, error) {
	output, err := l.embedding.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("[LocalEnricher] embedding inference failed: %w", err)
	}

	if len(output.Embeddings) == 0 {
		return nil, fmt.Errorf("[LocalEnricher] embedding pipeline returned no output")
	}
	return output.Embeddings[0], nil
}

func (l *LocalEnricher) Close() {
	l.session.Destroy()
}
