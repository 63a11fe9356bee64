package config

import (
	"fmt"
	"os"
	"strings"
)

// Config carries every credential and tunable the binaries need. It is loaded
// once in main and handed to explicitly constructed clients; nothing reads the
// environment after startup.
type Config struct {
	// Destination vector store.
	PineconeAPIKey    string
	PineconeIndexHost string
	PineconeNamespace string

	// Reddit API (client-credentials app).
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	TargetSubreddits   []string

	// PissedConsumer review pages.
	PissedConsumerBaseURL string
	BusinessName          string

	// Enrichment service (sentiment + embeddings over HTTP). When unset the
	// scrapers fall back to local ONNX models under ModelDir.
	EnrichmentBaseURL string
	ModelDir          string

	// Optional valkey seen-cache.
	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool

	// Digest agent.
	OpenAIAPIKey   string
	ResendAPIKey   string
	EmailSender    string
	EmailRecipient string
	DigestDir      string

	// Checkpoint file for incremental runs.
	StateFile string
}

// Load reads the configuration from the environment. Only the destination
// store settings are universally required; each binary validates the extras
// it needs via the Require* helpers.
func Load() (*Config, error) {
	cfg := &Config{
		PineconeAPIKey:        os.Getenv("PINECONE_API_KEY"),
		PineconeIndexHost:     os.Getenv("PINECONE_INDEX_HOST"),
		PineconeNamespace:     os.Getenv("PINECONE_NAMESPACE"),
		RedditClientID:        os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret:    os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUserAgent:       envOr("REDDIT_USER_AGENT", "feedbackpulse-scraper/1.0"),
		TargetSubreddits:      splitList(envOr("TARGET_SUBREDDITS", "tmobile")),
		PissedConsumerBaseURL: envOr("PISSEDCONSUMER_BASE_URL", "https://tmobile.pissedconsumer.com"),
		BusinessName:          envOr("BUSINESS_NAME", "T-Mobile"),
		EnrichmentBaseURL:     os.Getenv("ENRICHMENT_BASE_URL"),
		ModelDir:              envOr("MODEL_DIR", "models"),
		ValkeyAddress:         os.Getenv("VALKEY_INIT_ADDRESS"),
		ValkeyPassword:        os.Getenv("VALKEY_PASSWORD"),
		ValkeyTLS:             os.Getenv("VALKEY_TLS") == "true",
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		ResendAPIKey:          os.Getenv("RESEND_API_KEY"),
		EmailSender:           os.Getenv("EMAIL_SENDER"),
		EmailRecipient:        os.Getenv("EMAIL_RECIPIENT"),
		DigestDir:             envOr("DIGEST_DIR", "digests"),
		StateFile:             envOr("STATE_FILE", "last_scrape_state.json"),
	}

	if cfg.PineconeAPIKey == "" {
		return nil, fmt.Errorf("config: PINECONE_API_KEY is required")
	}
	if cfg.PineconeIndexHost == "" {
		return nil, fmt.Errorf("config: PINECONE_INDEX_HOST is required")
	}

	return cfg, nil
}

// RequireReddit validates the settings the Reddit scraper needs.
func (c *Config) RequireReddit() error {
	if c.RedditClientID == "" || c.RedditClientSecret == "" {
		return fmt.Errorf("config: REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required")
	}
	if len(c.TargetSubreddits) == 0 {
		return fmt.Errorf("config: TARGET_SUBREDDITS must name at least one subreddit")
	}
	return nil
}

// RequireEnrichment validates the remote enrichment service settings.
func (c *Config) RequireEnrichment() error {
	if c.EnrichmentBaseURL == "" {
		return fmt.Errorf("config: ENRICHMENT_BASE_URL is required")
	}
	return nil
}

// RequireDigest validates the digest agent settings. Email settings are
// checked separately by the emailer so digest generation can run without them.
func (c *Config) RequireDigest() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("config: OPENAI_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
