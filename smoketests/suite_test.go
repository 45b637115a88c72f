package smoketests

import (
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	null "gopkg.in/guregu/null.v3"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"

	"github.com/launchdarkly/test-scaffold/config"
	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/framework/container"
	"github.com/launchdarkly/test-scaffold/reporter"
	"github.com/launchdarkly/test-scaffold/stubapi"
)

func withStubService(t *testing.T, withAccount bool, action func(cfg config.Config, stub *stubapi.Server)) {
	stub := stubapi.New(nil)
	server := httptest.NewServer(stub.Handler())
	defer server.Close()

	cfg := config.Default().Apply(config.Config{
		BaseURL: null.StringFrom(server.URL),
		DelayMs: null.IntFrom(0),
	})
	if withAccount {
		stub.AddAccount("qa@example.com", "secret")
		cfg = cfg.Apply(config.Config{Email: null.StringFrom("qa@example.com"), Password: null.StringFrom("secret")})
	}
	require.NoError(t, cfg.Validate())
	action(cfg, stub)
}

func failureMessages(results framework.Results) []string {
	var ret []string
	for _, f := range results.Failures {
		for _, err := range f.Errors {
			ret = append(ret, f.TestID.String()+": "+err.Error())
		}
	}
	return ret
}

func TestSuitePassesAgainstStubService(t *testing.T) {
	withStubService(t, true, func(cfg config.Config, stub *stubapi.Server) {
		recorder := reporter.NewRecorder()
		root := NewContainer(cfg, recorder, ldlog.NewDisabledLoggers())

		results := RunTestSuite(root, nil, nil)

		assert.Empty(t, failureMessages(results))
		assert.Len(t, results.Tests, 18)

		users, products, orders := stub.Counts()
		assert.Equal(t, 1, users, "only the configured account remains")
		assert.Equal(t, 0, products)
		assert.Equal(t, 0, orders)

		rec, ok := recorder.Record(framework.TestID{Path: []string{"authentication", "configured account", "identity"}})
		require.True(t, ok)
		assert.Equal(t, "AUTHENTICATED_API", rec.Tags["strategy"])
		require.NotNil(t, rec.Outcome)
		assert.False(t, rec.Outcome.Failed)
	})
}

func TestConfiguredAccountTestsAreSkippedWithoutCredentials(t *testing.T) {
	withStubService(t, false, func(cfg config.Config, stub *stubapi.Server) {
		root := NewContainer(cfg, reporter.Null{}, ldlog.NewDisabledLoggers())

		results := RunTestSuite(root, nil, nil)

		assert.Empty(t, failureMessages(results))
		assert.Len(t, results.Tests, 15)
		users, _, _ := stub.Counts()
		assert.Equal(t, 0, users)
	})
}

func TestAuthenticatedClientRequiresCredentials(t *testing.T) {
	root := NewContainer(config.Default(), reporter.Null{}, ldlog.NewDisabledLoggers())
	_, err := root.Resolve(container.TokenAuthenticatedAPIClient)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestSuiteHonorsFilters(t *testing.T) {
	withStubService(t, false, func(cfg config.Config, _ *stubapi.Server) {
		root := NewContainer(cfg, reporter.Null{}, ldlog.NewDisabledLoggers())
		filters := framework.RegexFilters{}
		require.NoError(t, filters.MustMatch.Set("^products"))

		results := RunTestSuite(root, filters.AsFilter, nil)

		assert.True(t, results.OK())
		require.Len(t, results.Tests, 3)
		for _, r := range results.Tests {
			assert.Regexp(t, regexp.MustCompile("^products"), r.TestID.String())
		}
	})
}

func TestSuiteReportsServiceFailures(t *testing.T) {
	withStubService(t, false, func(cfg config.Config, _ *stubapi.Server) {
		cfg = cfg.Apply(config.Config{BaseURL: null.StringFrom("http://localhost:1")})
		root := NewContainer(cfg, reporter.Null{}, ldlog.NewDisabledLoggers())
		filters := framework.RegexFilters{}
		require.NoError(t, filters.MustMatch.Set("^users"))

		results := RunTestSuite(root, filters.AsFilter, nil)

		assert.False(t, results.OK())
		require.NotEmpty(t, results.Failures)
	})
}
