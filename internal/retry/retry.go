// Package retry repeats calls to the search backend that failed for transient
// reasons.
package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/backo-go"
)

// Policy controls how failed calls are retried with exponential backoff
type Policy struct {
	MaxAttempts int
	Backoff     *backo.Backo
	// Retryable reports whether err is worth another attempt
	Retryable func(error) bool
}

// NewPolicy returns a policy starting at 100ms and doubling up to 5s
func NewPolicy(attempts int, retryable func(error) bool) *Policy {
	if attempts < 1 {
		attempts = 1
	}
	return &Policy{
		MaxAttempts: attempts,
		Backoff:     backo.NewBacko(100*time.Millisecond, 2, 0, 5*time.Second),
		Retryable:   retryable,
	}
}

// Once returns a policy that never retries
func Once() *Policy {
	return NewPolicy(1, nil)
}

// Do runs fn until it succeeds, fails permanently or the attempts run out.
// The last error is returned.
func (p *Policy) Do(ctx context.Context, fn func() error) error {

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) || attempt == p.MaxAttempts {
			return err
		}

		t := time.NewTimer(p.Backoff.Duration(attempt - 1))
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Wrap(ctx.Err(), err.Error())
		case <-t.C:
		}
	}
	return err
}
