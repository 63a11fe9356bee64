package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/feedbackpulse/feedbackpulse/internal/models"
)

// seenTTLSeconds keeps the seen-sets from growing without bound; entries are
// only an optimization in front of the store existence check, so expiry is
// harmless.
const seenTTLSeconds = 7 * 24 * 3600

// ValkeyClient is the optional seen-item cache. Each platform gets its own
// set of uploaded source IDs which the deduplicator consults before paying
// for a store fetch.
type ValkeyClient struct {
	client valkey.Client
	opts   valkey.ClientOption
}

type ValkeyOptions struct {
	Address  string
	Password string
	UseTLS   bool
}

func NewValkeyClient(opts ValkeyOptions) (*ValkeyClient, error) {
	clientOpts := valkey.ClientOption{
		InitAddress:      []string{opts.Address},
		Password:         opts.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if opts.UseTLS {
		clientOpts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping: %w", err)
	}

	slog.Info("[ValkeyClient] Successfully connected")
	return &ValkeyClient{client: client, opts: clientOpts}, nil
}

func (vc *ValkeyClient) Close() {
	vc.client.Close()
}

func seenKey(platform models.Platform) string {
	return string(platform) + ":processed_posts"
}

// MarkSeen records a source ID as uploaded for its platform.
func (vc *ValkeyClient) MarkSeen(ctx context.Context, platform models.Platform, sourceID string) error {
	key := seenKey(platform)
	commands := []valkey.Completed{
		vc.client.B().Sadd().Key(key).Member(sourceID).Build(),
		vc.client.B().Expire().Key(key).Seconds(seenTTLSeconds).Build(),
	}

	for _, res := range vc.doMultiWithRetry(ctx, commands, 3) {
		if err := res.Error(); err != nil {
			return err
		}
	}
	return nil
}

// IsSeen reports whether a source ID was already uploaded. Errors degrade to
// false; the store existence check catches anything the cache missed.
func (vc *ValkeyClient) IsSeen(ctx context.Context, platform models.Platform, sourceID string) bool {
	res := vc.doWithRetry(ctx, vc.client.B().Sismember().Key(seenKey(platform)).Member(sourceID).Build(), 3)
	if err := res.Error(); err != nil {
		if isConnectionError(err) {
			slog.Warn("[ValkeyClient] Connection error on lookup",
				slog.String("error", err.Error()))
		}
		return false
	}

	ok, err := res.AsBool()
	if err != nil {
		return false
	}
	return ok
}

func (vc *ValkeyClient) doMultiWithRetry(ctx context.Context, commands []valkey.Completed, retries int) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult

	for i := 0; i < retries; i++ {
		results = vc.client.DoMulti(ctx, commands...)
		hasErr := false
		for _, r := range results {
			if r.Error() != nil {
				hasErr = true
				slog.Warn("[ValkeyClient] DoMulti failed",
					slog.Int("attempt", i+1),
					slog.String("error", r.Error().Error()))
				break
			}
		}
		if !hasErr {
			break
		}
		time.Sleep(250 * time.Millisecond)
	}

	return results
}

func (vc *ValkeyClient) doWithRetry(ctx context.Context, cmd valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.client.Do(ctx, cmd)
		if result.Error() == nil {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		time.Sleep(250 * time.Millisecond)
	}
	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
