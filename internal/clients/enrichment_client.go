package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
)

// EnrichmentClient talks to the hosted model service that exposes the
// sentiment and embedding endpoints. Both endpoints accept a single text and
// return JSON; 5xx responses are retried with exponential backoff.
type EnrichmentClient struct {
	baseURL string
	client  *http.Client
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model"`
}

type sentimentRequest struct {
	Text string `json:"text"`
}

type sentimentResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func NewEnrichmentClient(baseURL string, timeout time.Duration) *EnrichmentClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &EnrichmentClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Embed returns the service's embedding for text. The caller is responsible
// for any "query:"/"passage:" prefixing the model expects.
func (e *EnrichmentClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var result embedResponse
	if err := e.postJSON(ctx, e.baseURL+"/embed", embedRequest{Text: text}, &result); err != nil {
		return nil, err
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("[EnrichmentClient] service returned empty embedding")
	}
	return result.Embedding, nil
}

// Analyze returns the service's binary sentiment verdict for text.
func (e *EnrichmentClient) Analyze(ctx context.Context, text string) (models.Sentiment, error) {
	var result sentimentResponse
	if err := e.postJSON(ctx, e.baseURL+"/analyze", sentimentRequest{Text: text}, &result); err != nil {
		return models.Sentiment{}, err
	}
	if result.Label != models.SentimentPositive && result.Label != models.SentimentNegative {
		return models.Sentiment{}, fmt.Errorf("[EnrichmentClient] unexpected sentiment label %q", result.Label)
	}
	return models.NewSentiment(result.Label, result.Score), nil
}

func (e *EnrichmentClient) doWithRetry(req *http.Request, body []byte) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := INITIAL_BACKOFF

	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		req.Body = io.NopCloser(bytes.NewReader(body))
		resp, err = e.client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if resp != nil {
			resp.Body.Close()
		}

		slog.Warn("[EnrichmentClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return resp, err
}

func (e *EnrichmentClient) postJSON(ctx context.Context, endpoint string, input any, output any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.doWithRetry(req, body)
	if err != nil {
		slog.Error("[EnrichmentClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("enrichment service returned %d: %s", resp.StatusCode, preview(respBody))
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[EnrichmentClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("raw_response", preview(respBody)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func preview(respBody []byte) string {
	raw := string(respBody)
	if len(raw) > 80 {
		raw = raw[:80]
	}
	return raw
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
