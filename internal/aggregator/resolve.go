package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var (
	errNotConfigured = errors.New("source not configured")
	errDisabled      = errors.New("source disabled")
)

// FetchFunc performs one live fetch.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// FallbackFunc builds the substitute value for a failed fetch.
type FallbackFunc[T any] func(reason string) T

// Resolve runs fetch under timeout and never fails: any error, timeout or
// panic is turned into fallback(reason). The fetch runs on its own goroutine
// so Resolve returns at the deadline even if fetch ignores ctx.
func Resolve[T any](ctx context.Context, name string, timeout time.Duration, fetch FetchFunc[T], fallback FallbackFunc[T], logger zerolog.Logger) T {
	if fetch == nil {
		return substitute(name, errNotConfigured, fallback, logger)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fetch(ctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return substitute(name, out.err, fallback, logger)
		}
		return out.value
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s", timeout)
		}
		return substitute(name, err, fallback, logger)
	}
}

func substitute[T any](name string, err error, fallback FallbackFunc[T], logger zerolog.Logger) T {
	reason := err.Error()
	logger.Warn().Str("metric", name).Str("reason", reason).Msg("using fallback value")
	return fallback(reason)
}
