package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedbackpulse/feedbackpulse/config"
	"github.com/feedbackpulse/feedbackpulse/internal/clients"
	"github.com/feedbackpulse/feedbackpulse/internal/enrich"
	"github.com/feedbackpulse/feedbackpulse/internal/logging"
	"github.com/feedbackpulse/feedbackpulse/internal/toolserver"
	"github.com/feedbackpulse/feedbackpulse/internal/tools"
)

const version = "1.0.0"

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

	embedder, cleanup, err := buildEmbedder(cfg)
	if err != nil {
		slog.Error("Failed to initialize embedding backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	server := toolserver.New(tools.NewService(store, embedder), version)

	slog.Info("Starting MCP tool server on stdio")
	if err := server.Run(ctx); err != nil {
		slog.Error("Tool server exited", slog.String("error", err.Error()))
		os.Exit(1)
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
