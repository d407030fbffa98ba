package elasticsearch

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backoff controls Connect retries. The delay doubles after every failed
// attempt up to MaxDelay.
type Backoff struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultBackoff suits container start-up, where Elasticsearch is usually
// still booting when the services start.
var DefaultBackoff = Backoff{Attempts: 10, Delay: 2 * time.Second, MaxDelay: 30 * time.Second}

// Connect builds a client and waits until the cluster answers a ping.
func Connect(ctx context.Context, addr, index string, log *slog.Logger, b Backoff) (*Client, error) {
	client, err := New(addr, index, log)
	if err != nil {
		return nil, err
	}
	log = client.log

	attempts := max(1, b.Attempts)
	delay := b.Delay
	var lastErr error
	for i := range attempts {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = client.Ping(pingCtx)
		cancel()
		if lastErr == nil {
			log.Info("connected to elasticsearch", slog.String("addr", addr), slog.Int("attempt", i+1))
			return client, nil
		}
		if i == attempts-1 {
			break
		}

		log.Warn("elasticsearch ping failed, retrying",
			slog.Any("err", lastErr),
			slog.Int("attempt", i+1),
			slog.Int("max_retries", attempts),
			slog.Duration("retry_in", delay),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return nil, fmt.Errorf("connect to elasticsearch after %d attempts: %w", attempts, lastErr)
}
