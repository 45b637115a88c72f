package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/test-scaffold/framework"
)

const shortDelay = time.Millisecond

func TestDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 3, o.MaxAttempts)
	assert.Equal(t, 30*time.Second, o.Timeout)
	assert.Equal(t, time.Second, o.Delay)

	assert.Equal(t, time.Duration(0), Options{Delay: NoDelay}.withDefaults().Delay)
}

func TestSuccessOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	}, Options{Delay: shortDelay})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestSuccessAfterOneFailure(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}, Options{Delay: shortDelay})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 2, calls)
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	for _, maxAttempts := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("%d attempts", maxAttempts), func(t *testing.T) {
			calls := 0
			err := Run(context.Background(), func(context.Context) error {
				calls++
				return fmt.Errorf("failure %d", calls)
			}, Options{MaxAttempts: maxAttempts, Delay: shortDelay})

			require.Error(t, err)
			assert.Equal(t, maxAttempts, calls)
			assert.True(t, errors.Is(err, ErrRetryExhausted))
			assert.Contains(t, err.Error(), fmt.Sprintf("%d attempts", maxAttempts))
			assert.Contains(t, err.Error(), fmt.Sprintf("failure %d", maxAttempts))

			var exhausted *ExhaustedError
			require.True(t, errors.As(err, &exhausted))
			assert.Equal(t, maxAttempts, exhausted.Attempts)
		})
	}
}

func TestOnlyLastErrorMessageIsKept(t *testing.T) {
	calls := 0
	err := Run(context.Background(), func(context.Context) error {
		calls++
		return fmt.Errorf("failure %d", calls)
	}, Options{MaxAttempts: 3, Delay: shortDelay})

	assert.Equal(t, "operation failed after 3 attempts: failure 3", err.Error())
	assert.NotContains(t, err.Error(), "failure 1")
}

func TestDoesNotSleepPastDeadline(t *testing.T) {
	calls := 0
	started := time.Now()
	err := Run(context.Background(), func(context.Context) error {
		calls++
		return errors.New("nope")
	}, Options{MaxAttempts: 5, Timeout: 50 * time.Millisecond, Delay: time.Hour})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, int64(time.Since(started)), int64(time.Second))
	assert.Contains(t, err.Error(), "1 attempts")
}

func TestElapsedTimeIncludesTimeSpentInOperation(t *testing.T) {
	mockClock := clock.NewMock()
	calls := 0
	err := Run(context.Background(), func(context.Context) error {
		calls++
		mockClock.Add(60 * time.Millisecond)
		return errors.New("slow failure")
	}, Options{MaxAttempts: 10, Timeout: 100 * time.Millisecond, Delay: NoDelay, Clock: mockClock})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDelayIsConstant(t *testing.T) {
	delay := 20 * time.Millisecond
	var times []time.Time
	_ = Run(context.Background(), func(context.Context) error {
		times = append(times, time.Now())
		return errors.New("nope")
	}, Options{MaxAttempts: 3, Delay: delay})

	require.Len(t, times, 3)
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		assert.GreaterOrEqual(t, int64(gap), int64(delay))
		assert.Less(t, int64(gap), int64(delay*10))
	}
}

func TestCancellingContextInterruptsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Run(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("nope")
	}, Options{MaxAttempts: 3, Timeout: 2 * time.Hour, Delay: time.Hour})

	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, calls)
}

func TestFailedAttemptsAreLogged(t *testing.T) {
	var logger framework.CapturingLogger
	_ = Run(context.Background(), func(context.Context) error {
		return errors.New("nope")
	}, Options{MaxAttempts: 2, Delay: shortDelay, Logger: &logger})

	output := logger.Output()
	require.Len(t, output, 2)
	assert.Equal(t, "Attempt 1 of 2 failed: nope", output[0].Message)
	assert.Equal(t, "Attempt 2 of 2 failed: nope", output[1].Message)
}
