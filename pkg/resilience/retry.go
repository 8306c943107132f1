package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// Unlimited as Backoff.Attempts retries until success, a permanent error or
// the end of the context.
const Unlimited = -1

// Backoff describes an exponential retry schedule. Zero fields take the
// defaults: 3 attempts, 100ms doubling up to 10s, no jitter.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
	Factor   float64
	Jitter   float64
}

func (b Backoff) normalized() Backoff {
	switch {
	case b.Attempts == 0:
		b.Attempts = 3
	case b.Attempts < 0:
		b.Attempts = Unlimited
	}
	if b.Base <= 0 {
		b.Base = 100 * time.Millisecond
	}
	if b.Cap <= 0 {
		b.Cap = 10 * time.Second
	}
	if b.Factor < 1 {
		b.Factor = 2
	}
	b.Jitter = math.Max(0, math.Min(b.Jitter, 1))
	return b
}

// Delay returns the wait before the given retry (1 = after the first failure).
func (b Backoff) Delay(retry int) time.Duration {
	b = b.normalized()
	d := float64(b.Base) * math.Pow(b.Factor, float64(retry-1))
	if b.Jitter > 0 {
		d *= 1 + b.Jitter*(2*rand.Float64()-1)
	}
	return time.Duration(math.Min(d, float64(b.Cap)))
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Retry returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *permanentError
	return errors.As(err, &perm)
}

// Retry runs fn on the Backoff schedule until it succeeds, fails
// permanently, or ctx ends. Context errors returned by fn are permanent.
func Retry(ctx context.Context, name string, b Backoff, fn func() error) error {
	b = b.normalized()
	logger := slog.Default().With("component", "retry", "operation", name)

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if b.Attempts != Unlimited && attempt >= b.Attempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempt, err)
		}

		wait := b.Delay(attempt)
		logger.Warn("attempt failed", "attempt", attempt, "error", err, "retry_in", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("%s: gave up waiting to retry: %w", name, ctx.Err())
		}
	}
}
