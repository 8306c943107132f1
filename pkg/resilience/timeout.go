package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Portfolio-Assistant/pkg/errors"
)

// Within returns fn's result, or an error wrapping apperrors.ErrTimeout and
// context.DeadlineExceeded once limit passes. A non-positive limit calls fn
// inline. On timeout fn is left to finish against its cancelled context.
func Within[T any](ctx context.Context, limit time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if limit <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeoutCause(ctx, limit, apperrors.ErrTimeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		if !errors.Is(context.Cause(ctx), apperrors.ErrTimeout) {
			return zero, fmt.Errorf("%s: %w", name, context.Cause(ctx))
		}
		return zero, fmt.Errorf("%s exceeded %v: %w: %w", name, limit, apperrors.ErrTimeout, context.DeadlineExceeded)
	}
}
