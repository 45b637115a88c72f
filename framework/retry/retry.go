// Package retry runs fallible operations a bounded number of times with a constant delay
// between attempts.
//
// Retries stop when the attempt limit is reached, or when waiting one more delay would go past
// the overall timeout. There is no jitter or exponential backoff: the delay between attempts is
// always the same, so timing in tests that use it is predictable.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/launchdarkly/test-scaffold/framework"
)

const (
	DefaultMaxAttempts = 3
	DefaultTimeout     = time.Second * 30
	DefaultDelay       = time.Second
)

// ErrRetryExhausted is matched (with errors.Is) by the error returned when all attempts failed.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// ExhaustedError is returned by Do when the operation never succeeded. Only the message of the
// last underlying error is kept; earlier errors are discarded.
type ExhaustedError struct {
	Attempts    int
	LastMessage string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %s", e.Attempts, e.LastMessage)
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}

// Options controls the retry loop. Zero values mean the defaults.
type Options struct {
	MaxAttempts int
	Timeout     time.Duration
	Delay       time.Duration

	// Clock is used for elapsed-time accounting and for sleeping between attempts.
	Clock clock.Clock

	// Logger receives a message for every failed attempt.
	Logger framework.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Delay < 0 {
		o.Delay = 0
	} else if o.Delay == 0 {
		o.Delay = DefaultDelay
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = framework.NullLogger()
	}
	return o
}

// NoDelay can be used as Options.Delay to retry immediately.
const NoDelay = time.Duration(-1)

// Do calls op until it succeeds, returning its result.
//
// After a failure, Do only tries again if fewer than MaxAttempts attempts have been made and
// the next attempt could start (after Delay) without passing the deadline of start + Timeout.
// It cannot interrupt an attempt that is in progress; cancelling ctx only interrupts the wait
// between attempts, in which case ctx.Err() is returned.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts Options) (T, error) {
	var zero T
	o := opts.withDefaults()

	start := o.Clock.Now()
	deadline := start.Add(o.Timeout)
	attempts := 0
	var lastErr error

	for attempts < o.MaxAttempts && o.Clock.Now().Sub(start) < o.Timeout {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		attempts++
		o.Logger.Printf("Attempt %d of %d failed: %s", attempts, o.MaxAttempts, err)

		if attempts >= o.MaxAttempts || o.Clock.Now().Add(o.Delay).After(deadline) {
			break
		}
		if err := sleep(ctx, o.Clock, o.Delay); err != nil {
			return zero, err
		}
	}

	msg := "no attempt was made"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	return zero, &ExhaustedError{Attempts: attempts, LastMessage: msg}
}

// Run is like Do for operations that produce no value.
func Run(ctx context.Context, op func(context.Context) error, opts Options) error {
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts)
	return err
}

func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := clk.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
