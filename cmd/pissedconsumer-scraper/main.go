package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedbackpulse/feedbackpulse/config"
	"github.com/feedbackpulse/feedbackpulse/internal/clients"
	"github.com/feedbackpulse/feedbackpulse/internal/enrich"
	"github.com/feedbackpulse/feedbackpulse/internal/logging"
	"github.com/feedbackpulse/feedbackpulse/internal/pipeline"
	"github.com/feedbackpulse/feedbackpulse/internal/sentiment"
	"github.com/feedbackpulse/feedbackpulse/internal/sources"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := clients.NewPineconeStore(ctx, cfg.PineconeAPIKey, cfg.PineconeIndexHost, cfg.PineconeNamespace)
	if err != nil {
		slog.Error("Failed to connect to vector store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var seen pipeline.SeenCache
	if cfg.ValkeyAddress != "" {
		vk, err := clients.NewValkeyClient(clients.ValkeyOptions{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			UseTLS:   cfg.ValkeyTLS,
		})
		if err != nil {
			slog.Warn("Valkey unavailable, continuing without seen cache",
				slog.String("error", err.Error()))
		} else {
			defer vk.Close()
			seen = vk
		}
	}

	analyzer, embedder, cleanup, err := buildEnrichment(cfg)
	if err != nil {
		slog.Error("Failed to initialize enrichment backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	source := sources.NewPissedConsumerSource(nil, cfg.PissedConsumerBaseURL, cfg.BusinessName)

	runner := pipeline.NewRunner(
		source,
		pipeline.LoadCheckpoints(cfg.StateFile),
		pipeline.NewDeduplicator(store, seen),
		enrich.NewEnricher(analyzer, embedder),
		pipeline.NewUploader(store, seen))

	stats, runErr := runner.Run(ctx)

	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))

	if runErr != nil {
		slog.Error("Run failed", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
}

func buildEnrichment(cfg *config.Config) (enrich.Analyzer, enrich.Embedder, func(), error) {
	if cfg.EnrichmentBaseURL != "" {
		client := clients.NewEnrichmentClient(cfg.EnrichmentBaseURL, 60*time.Second)
		return client, client, func() {}, nil
	}

	local, err := enrich.NewLocalEnricher(cfg.ModelDir)
	if err != nil {
		return nil, nil, nil, err
	}
	if os.Getenv("SENTIMENT_ANALYZER") == "vader" {
		return sentiment.NewVaderAnalyzer(), local, local.Close, nil
	}
	return local, local, local.Close, nil
}
