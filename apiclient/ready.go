package apiclient

import (
	"context"
	"fmt"
	"time"

	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/framework/retry"
)

const readinessPollInterval = time.Millisecond * 100

// WaitUntilReady polls the given path until the service answers with a 2xx status or the
// timeout expires.
func WaitUntilReady(ctx context.Context, client Client, path string, timeout time.Duration, logger framework.Logger) error {
	if logger == nil {
		logger = framework.NullLogger()
	}
	maxAttempts := int(timeout/readinessPollInterval) + 1
	return retry.Run(ctx, func(ctx context.Context) error {
		resp, err := client.Get(ctx, path)
		if err != nil {
			return err
		}
		if !resp.OK() {
			return fmt.Errorf("service returned %s", resp)
		}
		return nil
	}, retry.Options{
		MaxAttempts: maxAttempts,
		Timeout:     timeout,
		Delay:       readinessPollInterval,
		Logger:      logger,
	})
}
