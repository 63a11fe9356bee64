package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/feedbackpulse/feedbackpulse/config"
	"github.com/feedbackpulse/feedbackpulse/internal/clients"
	"github.com/feedbackpulse/feedbackpulse/internal/digest"
	"github.com/feedbackpulse/feedbackpulse/internal/enrich"
	"github.com/feedbackpulse/feedbackpulse/internal/logging"
	"github.com/feedbackpulse/feedbackpulse/internal/tools"
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
	if err := cfg.RequireDigest(); err != nil {
		slog.Error("Invalid digest configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := clients.NewPineconeStore(ctx, cfg.PineconeAPIKey, cfg.PineconeIndexHost, cfg.PineconeNamespace)
	if err != nil {
		slog.Error("Failed to connect to vector store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	embedder, cleanup, err := buildEmbedder(cfg)
	if err != nil {
		slog.Error("Failed to initialize embedding backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	ai := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
	composer := digest.NewComposer(tools.NewService(store, embedder), ai, cfg.DigestDir)

	queries := []string{
		cfg.BusinessName + " customer experience",
		"customer service",
		"billing",
		"network coverage",
	}

	result, err := composer.Compose(ctx, queries)
	if err != nil {
		slog.Error("Digest generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Email delivery is best effort; the archived digest is the deliverable.
	emailer, err := digest.NewEmailer(cfg.ResendAPIKey, cfg.EmailSender, cfg.EmailRecipient)
	if err != nil {
		slog.Warn("Skipping email delivery", slog.String("error", err.Error()))
		return
	}
	if err := emailer.Send(result); err != nil {
		slog.Error("Failed to email digest", slog.String("error", err.Error()))
	}
}

func buildEmbedder(cfg *config.Config) (enrich.Embedder, func(), error) {
	if cfg.EnrichmentBaseURL != "" {
		client := clients.NewEnrichmentClient(cfg.EnrichmentBaseURL, 60*time.Second)
		return client, func() {}, nil
	}
	local, err := enrich.NewLocalEnricher(cfg.ModelDir)
	if err != nil {
		return nil, nil, err
	}
	return local, local.Close, nil
}
