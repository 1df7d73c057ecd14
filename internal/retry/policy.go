package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds a retried operation. Backoff grows linearly with the
// attempt number, which is gentle enough for RPC endpoints without
// stalling user-facing flows.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	Retryable   func(error) bool
}

// DefaultReadPolicy suits idempotent RPC reads.
func DefaultReadPolicy() Policy {
	return Policy{MaxAttempts: 4, Backoff: 500 * time.Millisecond, Retryable: IsRetryable}
}

// DefaultWritePolicy suits transaction submission, where replays are
// costlier and the mempool needs time to settle.
func DefaultWritePolicy() Policy {
	return Policy{MaxAttempts: 3, Backoff: 2 * time.Second, Retryable: IsRetryable}
}

// Do runs op up to MaxAttempts times. The attempt number passed to op
// starts at 1. Non-retryable errors propagate immediately; exhausting
// all attempts wraps the last error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := p.Backoff * time.Duration(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
