package clients

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL  = "https://oauth.reddit.com"
)

// RedditClient wraps an oauth2 client-credentials HTTP client for the
// listing endpoints. Expired tokens are refreshed on 401, 429s back off
// exponentially up to MAX_BACKOFF.
type RedditClient struct {
	config    *clientcredentials.Config
	client    *http.Client
	userAgent string
	mu        sync.Mutex
}

func NewRedditClient(clientID, clientSecret, userAgent string) *RedditClient {
	oauthConf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     REDDIT_AUTH_URL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &RedditClient{
		config:    oauthConf,
		client:    oauthConf.Client(context.Background()),
		userAgent: userAgent,
	}
}

func (rc *RedditClient) refreshClient() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.client = rc.config.Client(context.Background())
}

// GetJSON fetches an API path (e.g. "/r/tmobile/new") with the given query
// parameters and returns the raw response body.
func (rc *RedditClient) GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return rc.getJSON(ctx, path, query, 0, INITIAL_BACKOFF)
}

func (rc *RedditClient) getJSON(ctx context.Context, path string, query url.Values, attempt int, backoff time.Duration) ([]byte, error) {
	parsedURL, err := url.Parse(REDDIT_API_URL + path)
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] failed to parse URL: %w", err)
	}
	parsedURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if attempt >= MAX_RETRIES {
			return nil, fmt.Errorf("[RedditClient] still unauthorized after %d refreshes", attempt)
		}
		slog.Warn("[RedditClient] Token expired - refreshing and retrying")
		rc.refreshClient()
		return rc.getJSON(ctx, path, query, attempt+1, backoff)

	case http.StatusTooManyRequests:
		if attempt >= MAX_RETRIES {
			return nil, fmt.Errorf("[RedditClient] max retries reached, request failed")
		}
		slog.Warn("[RedditClient] 429 Too Many Requests - retrying with backoff",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		next := backoff * 2
		if next > MAX_BACKOFF {
			next = MAX_BACKOFF
		}
		return rc.getJSON(ctx, path, query, attempt+1, next)

	case http.StatusOK:
		return io.ReadAll(resp.Body)
	}

	return nil, fmt.Errorf("[RedditClient] unexpected status %d for %s", resp.StatusCode, path)
}
