package smoketests

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"

	"github.com/launchdarkly/test-scaffold/apiclient"
	"github.com/launchdarkly/test-scaffold/config"
	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/framework/container"
	"github.com/launchdarkly/test-scaffold/framework/retry"
	"github.com/launchdarkly/test-scaffold/orchestrator"
	"github.com/launchdarkly/test-scaffold/reporter"
)

// ErrNoCredentials is returned when an authenticated client is requested but no account is
// configured.
var ErrNoCredentials = errors.New("no credentials configured")

// NewContainer creates the root container for a run: the configuration, a reporter, a logger,
// a plain API client, and a lazily authenticated API client.
func NewContainer(cfg config.Config, rep reporter.Reporter, loggers ldlog.Loggers) *container.Container {
	logger := framework.NewLoggersAdapter(loggers, ldlog.Debug)
	client := apiclient.New(cfg.BaseURL.String, apiclient.WithLogger(logger))

	root := container.New()
	root.Register(container.TokenConfig, cfg)
	root.Register(container.TokenReporter, rep)
	root.Register(container.TokenLogger, logger)
	root.Register(container.TokenAPIClient, client)
	root.RegisterSingletonFactory(container.TokenAuthenticatedAPIClient, func(*container.Container) (interface{}, error) {
		creds, ok := cfg.Credentials()
		if !ok {
			return nil, ErrNoCredentials
		}
		opts := cfg.RetryOptions()
		opts.Logger = logger
		return retry.Do(context.Background(), func(ctx context.Context) (*apiclient.HTTPClient, error) {
			return apiclient.Authenticate(ctx, client, creds)
		}, opts)
	})
	return root
}

type suite struct {
	orchestrator *orchestrator.Orchestrator
	cfg          config.Config
	runID        string
}

// RunTestSuite runs all of the smoke tests against the services in root.
func RunTestSuite(
	root *container.Container,
	filter framework.Filter,
	testLogger framework.TestLogger,
	options ...orchestrator.Option,
) framework.Results {
	cfg, err := container.ResolveAs[config.Config](root, container.TokenConfig)
	if err != nil {
		cfg = config.Default()
	}
	s := &suite{
		orchestrator: orchestrator.New(root, options...),
		cfg:          cfg,
		runID:        uuid.NewString()[:8],
	}
	return framework.Run(filter, testLogger, func(t *framework.Context) {
		t.Run("users", s.doUserTests)
		t.Run("products", s.doProductTests)
		t.Run("orders", s.doOrderTests)
		t.Run("authentication", s.doAuthenticationTests)
	})
}

func (s *suite) run(t *framework.Context, name string, strategy orchestrator.Strategy, body func(*orchestrator.TestInputs)) {
	s.orchestrator.Run(t, name, strategy, body)
}

// eventually retries a request until it returns the expected status, for services that are
// only eventually consistent.
func (s *suite) eventually(in *orchestrator.TestInputs, path string, status int) (*apiclient.Response, error) {
	opts := s.cfg.RetryOptions()
	opts.Logger = in.T.DebugLogger()
	return retry.Do(in.Ctx, func(ctx context.Context) (*apiclient.Response, error) {
		resp, err := in.Request.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		if resp.Status != status {
			return nil, fmt.Errorf("GET %s returned %s", path, resp)
		}
		return resp, nil
	}, opts)
}
