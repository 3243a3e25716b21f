package docstore

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultBackoff     = 5 * time.Millisecond
)

// Retrier re-runs a transaction body after optimistic conflicts, up to
// MaxAttempts times. Any other error returned by the body aborts at once.
type Retrier struct {
	MaxAttempts int
	Backoff     time.Duration
	// OnConflict, if set, is called after each conflicted attempt.
	OnConflict func(attempt int, err error)
}

// DefaultRetrier returns a Retrier with the default attempt budget.
func DefaultRetrier() Retrier {
	return Retrier{MaxAttempts: DefaultMaxAttempts, Backoff: DefaultBackoff}
}

// Run executes fn in a fresh transaction until it commits, fails with a
// non-conflict error, or the attempt budget is spent. In the last case the
// returned error wraps ErrRetriesExhausted.
func (r Retrier) Run(ctx context.Context, s Store, fn TxFunc) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.RunTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}

		lastErr = err
		if r.OnConflict != nil {
			r.OnConflict(attempt, err)
		}
		if attempt < attempts {
			if err := r.wait(ctx, attempt); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempts, lastErr)
}

func (r Retrier) wait(ctx context.Context, attempt int) error {
	if r.Backoff <= 0 {
		return nil
	}
	delay := time.Duration(attempt)*r.Backoff + time.Duration(rand.Int63n(int64(r.Backoff)))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
