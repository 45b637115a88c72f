package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/test-scaffold/framework"
)

func TestRerunCommand(t *testing.T) {
	p := &runParams{url: "http://localhost:8080", configPath: "my config.yaml"}
	require.NoError(t, p.filters.MustNotMatch.Set("slow"))
	failures := []framework.TestResult{
		{TestID: framework.TestID{Path: []string{"users", "create and fetch"}}},
	}

	assert.Equal(t,
		`scaffold run --url http://localhost:8080 --config 'my config.yaml' `+
			`--run '^users(/create and fetch)?$' --skip slow --debug`,
		rerunCommand("scaffold", p, failures))
}

func TestFlagConfigOnlyIncludesChangedFlags(t *testing.T) {
	var p runParams
	cmd := &cobra.Command{Use: "run"}
	cmd.Flags().StringVar(&p.url, "url", "", "")
	cmd.Flags().StringVar(&p.email, "email", "", "")
	cmd.Flags().StringVar(&p.password, "password", "", "")
	cmd.Flags().IntVar(&p.maxAttempts, "max-attempts", 0, "")
	cmd.Flags().BoolVar(&p.debug, "debug", false, "")
	cmd.Flags().BoolVar(&p.debugAll, "debug-all", false, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--url", "http://svc", "--max-attempts", "4"}))

	c := flagConfig(cmd, &p)
	assert.Equal(t, "http://svc", c.BaseURL.String)
	assert.True(t, c.BaseURL.Valid)
	assert.Equal(t, int64(4), c.MaxAttempts.Int64)
	assert.False(t, c.Email.Valid)
	assert.False(t, c.Debug.Valid)
}

func TestCommandsAreRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["stub-server"])
}

func TestRerunPattern(t *testing.T) {
	assert.Equal(t, "^users$", rerunPattern(framework.TestID{Path: []string{"users"}}))
	assert.Equal(t, `^a\.b(/c(/d\?)?)?$`, rerunPattern(framework.TestID{Path: []string{"a.b", "c", "d?"}}))
}

func TestRerunPatternSelectsOnlyTheFailedTest(t *testing.T) {
	failed := framework.TestID{Path: []string{"authentication", "configured account", "identity"}}
	var filters framework.RegexFilters
	require.NoError(t, filters.MustMatch.Set(rerunPattern(failed)))

	var ran []string
	record := func(c *framework.Context) { ran = append(ran, c.ID().String()) }
	results := framework.Run(filters.AsFilter, nil, func(c *framework.Context) {
		c.Run("users", func(c *framework.Context) {
			c.Run("create and fetch", record)
		})
		c.Run("authentication", func(c *framework.Context) {
			c.Run("new user can log in", record)
			c.Run("configured account", func(c *framework.Context) {
				c.Run("identity", record)
				c.Run("creates an order for itself", record)
			})
		})
	})

	assert.Equal(t, []string{"authentication/configured account/identity"}, ran)
	assert.True(t, results.OK())
}
