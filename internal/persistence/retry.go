package persistence

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy controls how RetryingBackend retries failed calls.
//
//   - MaxAttempts <= 0 is treated as 1 (no retries).
//   - InitialBackoff is the delay before the first retry; zero retries
//     immediately.
//   - BackoffMultiplier grows the delay each attempt (default 2.0 if <= 0).
//   - MaxBackoff caps the delay; if <= 0, there is no cap.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// DefaultRetryPolicy is used for remote backends when nothing else is set.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:       3,
	InitialBackoff:    50 * time.Millisecond,
	BackoffMultiplier: 2.0,
	MaxBackoff:        time.Second,
}

// RetryingBackend retries failed calls of an inner Backend.
//
// ErrRecordNotFound and context errors are returned immediately.
type RetryingBackend struct {
	inner  Backend
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

var _ Backend = (*RetryingBackend)(nil)

// NewRetryingBackend wraps inner with policy.
func NewRetryingBackend(inner Backend, policy RetryPolicy) *RetryingBackend {
	return &RetryingBackend{
		inner:  inner,
		policy: policy,
		sleep:  sleepContext,
	}
}

func (b *RetryingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.do(ctx, func() error {
		var err error
		data, err = b.inner.Get(ctx, key)
		return err
	})
	return data, err
}

func (b *RetryingBackend) Put(ctx context.Context, key string, data []byte) error {
	return b.do(ctx, func() error {
		return b.inner.Put(ctx, key, data)
	})
}

func (b *RetryingBackend) Delete(ctx context.Context, key string) error {
	return b.do(ctx, func() error {
		return b.inner.Delete(ctx, key)
	})
}

func (b *RetryingBackend) do(ctx context.Context, call func() error) error {
	attempts := b.policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	multiplier := b.policy.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	backoff := b.policy.InitialBackoff
	maxBackoff := b.policy.MaxBackoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = call()
		if err == nil || !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		if backoff > 0 {
			delay := backoff
			if maxBackoff > 0 && delay > maxBackoff {
				delay = maxBackoff
			}
			if serr := b.sleep(ctx, delay); serr != nil {
				return serr
			}

			next := time.Duration(float64(backoff) * multiplier)
			if maxBackoff > 0 && next > maxBackoff {
				next = maxBackoff
			}
			backoff = next
		}
	}
	return err
}

func retryable(err error) bool {
	return !errors.Is(err, ErrRecordNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
