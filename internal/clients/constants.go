package clients

import "time"

const (
	MAX_RETRIES     = 5
	INITIAL_BACKOFF = 1 * time.Second
	MAX_BACKOFF     = 32 * time.Second

	// RATE_LIMIT_DELAY is the fixed pause between consecutive source
	// requests inside one run.
	RATE_LIMIT_DELAY = 2 * time.Second
)
