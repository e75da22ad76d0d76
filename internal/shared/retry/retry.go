// Package retry runs an operation until it succeeds, a permanent error is
// returned, the attempt budget runs out, or the context is done.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds a retry loop.
type Policy struct {
	// MaxAttempts counts the first call. Values below 1 mean one attempt.
	MaxAttempts int
	// Delay returns the wait after the given failed attempt (1-based).
	Delay func(attempt int) time.Duration
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Exponential waits base * 2^attempt after each failure.
func Exponential(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	}
}

// NoDelay retries immediately.
func NoDelay(int) time.Duration { return 0 }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do calls fn until it returns nil or the policy gives up. The last error is
// returned unchanged; a cancelled context returns the context error.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay
	if delay == nil {
		delay = NoDelay
	}

	schedule := &attemptBackOff{delay: delay}
	b := backoff.WithContext(backoff.WithMaxRetries(schedule, uint64(attempts-1)), ctx)

	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		return fn(ctx)
	}
	notify := func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(schedule.attempt, err, wait)
		}
	}

	err := backoff.RetryNotify(op, b, notify)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

type attemptBackOff struct {
	delay   func(int) time.Duration
	attempt int
}

func (b *attemptBackOff) NextBackOff() time.Duration {
	b.attempt++
	d := b.delay(b.attempt)
	if d < 0 {
		return 0
	}
	return d
}

func (b *attemptBackOff) Reset() { b.attempt = 0 }
