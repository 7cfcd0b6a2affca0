package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/paintball/internal/config"
)

// Retry policy for waitReady. Tests shorten it.
var (
	maxAttempts    = 10
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	pingTimeout    = 5 * time.Second
)

// NewRedis connects to the Redis instance holding computed summaries and
// waits until it answers.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := waitReady(context.Background(), "redis", ping); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// waitReady pings until it succeeds, doubling the wait between attempts.
func waitReady(ctx context.Context, name string, ping func(context.Context) error) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = ping(pctx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		slog.Warn(name+" not ready, retrying...",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("backoff", backoff),
			slog.Any("error", err),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", name, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
	return fmt.Errorf("pinging %s after %d attempts: %w", name, maxAttempts, err)
}
