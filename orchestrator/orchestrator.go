// Package orchestrator runs test bodies under an execution strategy, handing each one the page
// and request handles that the strategy calls for, a fixture builder, and a reporter.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/test-scaffold/apiclient"
	"github.com/launchdarkly/test-scaffold/fixtures"
	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/framework/container"
	"github.com/launchdarkly/test-scaffold/reporter"
)

// TestInputs is what a test body receives. Page is nil unless the strategy uses a page, and
// Request is nil unless it uses an API client.
type TestInputs struct {
	T        *framework.Context
	Ctx      context.Context
	Strategy Strategy
	Page     Page
	Request  apiclient.Client

	// Data creates fixtures through the plain IApiClient, never the authenticated one, so
	// under the AUTHENTICATED_* strategies test data is still created anonymously. It is nil
	// if no IApiClient is registered.
	Data *fixtures.Builder

	Reporter reporter.Reporter
	Scope    *container.Container
}

// Step runs fn as a named step, reporting its start and end. The error from fn is returned
// unchanged; it is up to the caller whether it fails the test.
func (in *TestInputs) Step(name string, fn func() error) (err error) {
	id := in.T.ID()
	in.Reporter.OnStepStart(id, name)
	defer func() {
		if r := recover(); r != nil {
			in.Reporter.OnStepEnd(id, name, errors.New("step aborted"))
			panic(r)
		}
		in.Reporter.OnStepEnd(id, name, err)
	}()
	return fn()
}

// Screenshot captures the page and hands it to the reporter.
func (in *TestInputs) Screenshot(name string) error {
	if in.Page == nil {
		return fmt.Errorf("strategy %s has no page to capture", in.Strategy)
	}
	png, err := in.Page.Screenshot(in.Ctx)
	if err != nil {
		return err
	}
	in.Reporter.AddScreenshot(in.T.ID(), name, png)
	return nil
}

// Orchestrator runs tests against services registered in a root container. It keeps no state
// between tests; each test gets its own child scope and fixture context.
type Orchestrator struct {
	root    *container.Container
	clock   clock.Clock
	timeout time.Duration
}

type Option func(*Orchestrator)

// WithClock sets the clock used for measuring test durations.
func WithClock(clk clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = clk }
}

// WithTestTimeout sets a deadline on the context passed to each test body. Fixture cleanup is
// not subject to it.
func WithTestTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = timeout }
}

func New(root *container.Container, options ...Option) *Orchestrator {
	o := &Orchestrator{root: root, clock: clock.New()}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Run runs body as a subtest of t under the given strategy. If the strategy is unknown, or a
// handle it needs cannot be resolved, the subtest fails without calling body.
func (o *Orchestrator) Run(t *framework.Context, name string, strategy Strategy, body func(*TestInputs)) {
	t.Run(name, func(t *framework.Context) {
		o.runTest(t, strategy, body)
	})
}

func (o *Orchestrator) runTest(t *framework.Context, strategy Strategy, body func(*TestInputs)) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), o.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	t.Defer(cancel)

	inputs, err := o.prepare(ctx, t, strategy)
	require.NoError(t, err)

	id := t.ID()
	start := o.clock.Now()
	inputs.Reporter.OnTestStart(id)
	inputs.Reporter.SetTag(id, "strategy", string(strategy))
	t.Defer(func() {
		inputs.Reporter.OnTestEnd(id, reporter.Outcome{
			Failed:   t.Failed(),
			Skipped:  t.Skipped(),
			Errors:   t.Errors(),
			Duration: o.clock.Since(start),
		})
	})
	if inputs.Data != nil {
		t.Defer(func() {
			if err := inputs.Data.Cleanup(context.WithoutCancel(ctx)); err != nil {
				t.Errorf("fixture cleanup failed: %s", err)
			}
		})
	}

	body(inputs)
}

func (o *Orchestrator) prepare(ctx context.Context, t *framework.Context, strategy Strategy) (*TestInputs, error) {
	tokens, err := strategy.Inputs()
	if err != nil {
		return nil, err
	}
	scope := o.root.CreateChild(map[container.Token]interface{}{
		container.TokenLogger: t.DebugLogger(),
	})
	inputs := &TestInputs{
		T:        t,
		Ctx:      ctx,
		Strategy: strategy,
		Reporter: reporter.Null{},
		Scope:    scope,
	}

	if scope.HasRegistration(container.TokenReporter) {
		if inputs.Reporter, err = container.ResolveAs[reporter.Reporter](scope, container.TokenReporter); err != nil {
			return nil, err
		}
	}
	if tokens.Page != "" {
		if inputs.Page, err = container.ResolveAs[Page](scope, tokens.Page); err != nil {
			return nil, err
		}
	}
	if tokens.Request != "" {
		if inputs.Request, err = container.ResolveAs[apiclient.Client](scope, tokens.Request); err != nil {
			return nil, err
		}
	}
	if scope.HasRegistration(container.TokenAPIClient) {
		client, err := container.ResolveAs[apiclient.Client](scope, container.TokenAPIClient)
		if err != nil {
			return nil, err
		}
		inputs.Data = fixtures.NewBuilder(client, fixtures.NewTestDataContext(t.ID().String()), t.DebugLogger())
	}
	return inputs, nil
}
