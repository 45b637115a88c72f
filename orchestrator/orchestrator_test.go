package orchestrator

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/test-scaffold/apiclient"
	"github.com/launchdarkly/test-scaffold/fixtures"
	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/framework/container"
	"github.com/launchdarkly/test-scaffold/reporter"
	"github.com/launchdarkly/test-scaffold/stubapi"
)

type fakePage struct {
	name    string
	visited []string
}

func (p *fakePage) Goto(_ context.Context, url string) error {
	p.visited = append(p.visited, url)
	return nil
}

func (p *fakePage) Screenshot(context.Context) ([]byte, error) {
	return []byte("png:" + p.name), nil
}

type serviceFixture struct {
	root     *container.Container
	stub     *stubapi.Server
	client   *apiclient.HTTPClient
	authed   *apiclient.HTTPClient
	page     *fakePage
	authPage *fakePage
	recorder *reporter.Recorder
}

func withServices(t *testing.T, action func(f serviceFixture)) {
	stub := stubapi.New(nil)
	server := httptest.NewServer(stub.Handler())
	defer server.Close()

	f := serviceFixture{
		root:     container.New(),
		stub:     stub,
		client:   apiclient.New(server.URL),
		page:     &fakePage{name: "plain"},
		authPage: &fakePage{name: "authenticated"},
		recorder: reporter.NewRecorder(),
	}
	f.authed = f.client.With(apiclient.WithBearerToken("token"))
	f.root.Register(container.TokenAPIClient, f.client)
	f.root.Register(container.TokenAuthenticatedAPIClient, f.authed)
	f.root.Register(container.TokenPage, f.page)
	f.root.Register(container.TokenAuthenticatedPage, f.authPage)
	f.root.Register(container.TokenReporter, f.recorder)
	action(f)
}

func runOne(o *Orchestrator, strategy Strategy, body func(*TestInputs)) framework.Results {
	return framework.Run(nil, nil, func(t *framework.Context) {
		o.Run(t, "test", strategy, body)
	})
}

var testID = framework.TestID{Path: []string{"test"}}

func TestStrategiesReceiveTheirHandles(t *testing.T) {
	withServices(t, func(f serviceFixture) {
		type handles struct {
			page    Page
			request apiclient.Client
		}
		expected := map[Strategy]handles{
			UI:                  {page: f.page},
			API:                 {request: f.client},
			AuthenticatedUI:     {page: f.authPage},
			AuthenticatedAPI:    {request: f.authed},
			Hybrid:              {page: f.page, request: f.client},
			AuthenticatedHybrid: {page: f.authPage, request: f.authed},
		}
		for strategy, want := range expected {
			var got *TestInputs
			results := runOne(New(f.root), strategy, func(in *TestInputs) { got = in })
			require.True(t, results.OK(), string(strategy))
			require.NotNil(t, got)
			assert.Equal(t, strategy, got.Strategy)
			assert.Equal(t, want.page, got.Page, string(strategy))
			assert.Equal(t, want.request, got.Request, string(strategy))
			assert.NotNil(t, got.Data, "fixture builder is available whenever an API client is registered")
		}
	})
}

func TestUnknownStrategyFailsWithoutRunningBody(t *testing.T) {
	called := false
	results := runOne(New(container.New()), Strategy("MOBILE"), func(*TestInputs) { called = true })

	assert.False(t, called)
	require.Len(t, results.Failures, 1)
	require.NotEmpty(t, results.Failures[0].Errors)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "unknown test strategy")
}

func TestMissingHandleFailsTest(t *testing.T) {
	root := container.New()
	root.Register(container.TokenAPIClient, apiclient.New("http://localhost"))
	called := false
	results := runOne(New(root), UI, func(*TestInputs) { called = true })

	assert.False(t, called)
	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "service not registered")
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "IPage")
}

func TestUIWithoutAPIClientHasNoFixtureBuilder(t *testing.T) {
	root := container.New()
	root.Register(container.TokenPage, &fakePage{})
	var got *TestInputs
	results := runOne(New(root), UI, func(in *TestInputs) { got = in })

	require.True(t, results.OK())
	assert.Nil(t, got.Data)
	assert.Nil(t, got.Request)
	assert.Equal(t, reporter.Null{}, got.Reporter)
}

func TestFixturesAreCleanedUpAfterTest(t *testing.T) {
	withServices(t, func(f serviceFixture) {
		results := runOne(New(f.root), API, func(in *TestInputs) {
			_, err := in.Data.CreateOrderScenario(in.Ctx, 2, ldvalue.Null())
			require.NoError(in.T, err)
			users, products, orders := f.stub.Counts()
			assert.Equal(in.T, []int{1, 2, 1}, []int{users, products, orders})
		})

		require.True(t, results.OK())
		users, products, orders := f.stub.Counts()
		assert.Equal(t, []int{0, 0, 0}, []int{users, products, orders})
		assert.Equal(t, []string{"order o1", "product p2", "product p1", "user u1"}, f.stub.Deletions())
	})
}

func TestFixturesAreCleanedUpAfterFailedTest(t *testing.T) {
	withServices(t, func(f serviceFixture) {
		results := runOne(New(f.root), API, func(in *TestInputs) {
			_, err := in.Data.CreateUser(in.Ctx, ldvalue.Null())
			require.NoError(in.T, err)
			in.T.Errorf("something went wrong")
			in.T.FailNow()
		})

		assert.False(t, results.OK())
		users, _, _ := f.stub.Counts()
		assert.Equal(t, 0, users)
	})
}

func TestCleanupFailureFailsTest(t *testing.T) {
	withServices(t, func(f serviceFixture) {
		results := runOne(New(f.root), API, func(in *TestInputs) {
			in.Data.RegisterFactory("widget", func(context.Context, apiclient.Client, ldvalue.Value,
				*fixtures.TestDataContext) (*fixtures.Entity, error) {
				return &fixtures.Entity{ID: "w1", Type: "widget", Cleanup: func(context.Context) error {
					return errors.New("widget is stuck")
				}}, nil
			})
			_, err := in.Data.CreateEntity(in.Ctx, "widget", ldvalue.Null())
			require.NoError(in.T, err)
		})

		require.Len(t, results.Failures, 1)
		assert.Contains(t, results.Failures[0].Errors[0].Error(), "widget is stuck")

		rec, ok := f.recorder.Record(testID)
		require.True(t, ok)
		require.NotNil(t, rec.Outcome)
		assert.True(t, rec.Outcome.Failed, "cleanup runs before the end of the test is reported")
	})
}

func TestReporterReceivesLifecycleAndSteps(t *testing.T) {
	withServices(t, func(f serviceFixture) {
		mockClock := clock.NewMock()
		o := New(f.root, WithClock(mockClock))
		results := runOne(o, Hybrid, func(in *TestInputs) {
			require.NoError(in.T, in.Step("open home", func() error {
				return in.Page.Goto(in.Ctx, "/")
			}))
			err := in.Step("check", func() error { return errors.New("mismatch") })
			assert.Error(in.T, err)
			require.NoError(in.T, in.Screenshot("home"))
			mockClock.Add(3 * time.Second)
		})

		assert.True(t, results.OK(), "a failed step does not fail the test by itself")
		rec, ok := f.recorder.Record(testID)
		require.True(t, ok)
		assert.Equal(t, []string{
			"start",
			"tag",
			"step start: open home",
			"step end: open home",
			"step start: check",
			"step failed: check: mismatch",
			"screenshot: home",
			"end",
		}, rec.Events)
		assert.Equal(t, "HYBRID", rec.Tags["strategy"])
		assert.Equal(t, []byte("png:plain"), rec.Screenshots["home"])
		assert.Equal(t, 3*time.Second, rec.Outcome.Duration)
		assert.False(t, rec.Outcome.Failed)
		assert.Len(t, rec.Outcome.Errors, 0)
		assert.Equal(t, []string{"/"}, f.page.visited)
	})
}

func TestStepAbortedByFailNow(t *testing.T) {
	withServices(t, func(f serviceFixture) {
		results := runOne(New(f.root), API, func(in *TestInputs) {
			_ = in.Step("doomed", func() error {
				require.Fail(in.T, "stop here")
				return nil
			})
			in.T.Errorf("not reached")
		})

		require.Len(t, results.Failures, 1)
		assert.Len(t, results.Failures[0].Errors, 1)
		rec, _ := f.recorder.Record(testID)
		assert.Contains(t, rec.Events, "step failed: doomed: step aborted")
	})
}

func TestScreenshotWithoutPage(t *testing.T) {
	withServices(t, func(f serviceFixture) {
		var err error
		runOne(New(f.root), API, func(in *TestInputs) { err = in.Screenshot("x") })
		assert.Error(t, err)
	})
}

func TestTestsDoNotShareState(t *testing.T) {
	withServices(t, func(f serviceFixture) {
		var inputs []*TestInputs
		o := New(f.root)
		results := framework.Run(nil, nil, func(t *framework.Context) {
			for _, name := range []string{"a", "b"} {
				o.Run(t, name, API, func(in *TestInputs) {
					inputs = append(inputs, in)
					in.Scope.Register("local", name)
				})
			}
		})

		require.True(t, results.OK())
		require.Len(t, inputs, 2)
		assert.NotSame(t, inputs[0].Data, inputs[1].Data)
		assert.NotSame(t, inputs[0].Scope, inputs[1].Scope)
		assert.Equal(t, "a", inputs[0].Data.TestContext().TestID)
		assert.Equal(t, "b", inputs[1].Data.TestContext().TestID)
		assert.False(t, f.root.HasRegistration("local"))

		logger, err := inputs[0].Scope.Resolve(container.TokenLogger)
		require.NoError(t, err)
		assert.Equal(t, inputs[0].T.DebugLogger(), logger)
	})
}

func TestTestTimeoutAppliesToBodyContext(t *testing.T) {
	withServices(t, func(f serviceFixture) {
		var deadlineSet bool
		runOne(New(f.root, WithTestTimeout(time.Minute)), API, func(in *TestInputs) {
			_, deadlineSet = in.Ctx.Deadline()
		})
		assert.True(t, deadlineSet)
	})
}

func TestFixturesUseThePlainClientUnderAuthenticatedStrategies(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.HandlerWithJSONResponse(map[string]string{"id": "p1"}, nil))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		plain := apiclient.New(server.URL)
		root := container.New()
		root.Register(container.TokenAPIClient, plain)
		root.Register(container.TokenAuthenticatedAPIClient, plain.With(apiclient.WithBearerToken("secret")))

		results := runOne(New(root), AuthenticatedAPI, func(in *TestInputs) {
			_, err := in.Request.Get(in.Ctx, "/api/me")
			require.NoError(in.T, err)
			_, err = in.Data.CreateProduct(in.Ctx, ldvalue.Null())
			require.NoError(in.T, err)
		})
		require.True(t, results.OK())

		me := <-requestsCh
		assert.Equal(t, "Bearer secret", me.Request.Header.Get("Authorization"))
		create := <-requestsCh
		assert.Equal(t, "POST", create.Request.Method)
		assert.Equal(t, "", create.Request.Header.Get("Authorization"))
		cleanup := <-requestsCh
		assert.Equal(t, "DELETE", cleanup.Request.Method)
		assert.Equal(t, "", cleanup.Request.Header.Get("Authorization"))
	})
}
