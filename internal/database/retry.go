package database

import (
	"context"
	"fmt"
	"time"

	"github.com/novenoa/cards/pkg/logger"
	"github.com/novenoa/cards/pkg/metrics"
)

// Retry calls connect up to attempts times, doubling the wait after each
// failure. It tolerates the store starting after the service does. The last
// error is returned once attempts run out or ctx is done.
func Retry(ctx context.Context, name string, attempts int, backoff time.Duration, connect func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = connect(ctx); err == nil {
			metrics.StoreConnectAttempts.WithLabelValues("success").Inc()
			return nil
		}
		metrics.StoreConnectAttempts.WithLabelValues("failure").Inc()
		logger.Warnf("attempt %d/%d: failed to connect to %s: %v", attempt, attempts, name, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("connect %s: %w", name, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("connect %s after %d attempts: %w", name, attempts, err)
}
