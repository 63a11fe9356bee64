package tools

import (
	"math"
	"time"

	"github.com/feedbackpulse/feedbackpulse/internal/enrich"
	"github.com/feedbackpulse/feedbackpulse/internal/vectorstore"
)

// Status is the response envelope shared by every tool. Tools never return a
// Go error to the caller; failures come back as status "error" so the agent
// always receives a well-formed result.
type Status struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func ok() Status {
	return Status{Status: "success"}
}

func failed(err error) Status {
	return Status{Status: "error", ErrorMessage: err.Error()}
}

// Service exposes the read-only query surface over the vector store.
type Service struct {
	store    vectorstore.Store
	embedder enrich.Embedder
	now      func() time.Time
}

func NewService(store vectorstore.Store, embedder enrich.Embedder) *Service {
	return &Service{
		store:    store,
		embedder: embedder,
		now:      time.Now,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mdString(md map[string]any, key string) string {
	if v, ok := md[key].(string); ok {
		return v
	}
	return ""
}

func mdFloat(md map[string]any, key string) float64 {
	switch v := md[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
