package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	null "gopkg.in/guregu/null.v3"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"

	"github.com/launchdarkly/test-scaffold/apiclient"
	"github.com/launchdarkly/test-scaffold/config"
	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/orchestrator"
	"github.com/launchdarkly/test-scaffold/reporter"
	"github.com/launchdarkly/test-scaffold/smoketests"
)

var errTestsFailed = errors.New("some tests failed")

type runParams struct {
	url         string
	configPath  string
	email       string
	password    string
	maxAttempts int
	testTimeout int
	filters     framework.RegexFilters
	debug       bool
	debugAll    bool
}

var runFlags runParams

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenario tests against a service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTests(cmd, &runFlags)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	f := runCmd.Flags()
	f.StringVar(&runFlags.url, "url", "", "base URL of the service under test")
	f.StringVar(&runFlags.configPath, "config", "", "YAML configuration file")
	f.StringVar(&runFlags.email, "email", "", "account email for authenticated tests")
	f.StringVar(&runFlags.password, "password", "", "account password for authenticated tests")
	f.IntVar(&runFlags.maxAttempts, "max-attempts", 0, "attempts for operations that are retried")
	f.IntVar(&runFlags.testTimeout, "test-timeout", 0, "seconds allowed for each test body (0 for no limit)")
	f.Var(&runFlags.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	f.Var(&runFlags.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	f.BoolVar(&runFlags.debug, "debug", false, "show debug output for failed tests")
	f.BoolVar(&runFlags.debugAll, "debug-all", false, "show debug output for all tests")
}

// flagConfig returns only the settings that were given on the command line.
func flagConfig(cmd *cobra.Command, p *runParams) config.Config {
	var c config.Config
	flags := cmd.Flags()
	if flags.Changed("url") {
		c.BaseURL = null.StringFrom(p.url)
	}
	if flags.Changed("email") {
		c.Email = null.StringFrom(p.email)
	}
	if flags.Changed("password") {
		c.Password = null.StringFrom(p.password)
	}
	if flags.Changed("max-attempts") {
		c.MaxAttempts = null.IntFrom(int64(p.maxAttempts))
	}
	if flags.Changed("debug") || flags.Changed("debug-all") {
		c.Debug = null.BoolFrom(p.debug || p.debugAll)
	}
	return c
}

func runTests(cmd *cobra.Command, p *runParams) error {
	cfg, err := config.Load(p.configPath, flagConfig(cmd, p))
	if err != nil {
		return err
	}
	p.url = cfg.BaseURL.String

	loggers := ldlog.NewDefaultLoggers()
	if p.debugAll {
		loggers.SetMinLevel(ldlog.Debug)
	}
	out := cmd.OutOrStdout()

	console := &reporter.Console{
		Out:                  out,
		DebugOutputOnFailure: p.debug || p.debugAll || cfg.Debug.Bool,
		DebugOutputOnSuccess: p.debugAll,
	}

	ctx := context.Background()
	readyLogger := framework.NewLoggersAdapter(loggers, ldlog.Info)
	if err := apiclient.WaitUntilReady(ctx, apiclient.New(cfg.BaseURL.String), "/", cfg.ReadyTimeout(), readyLogger); err != nil {
		return fmt.Errorf("service at %s did not become ready: %w", cfg.BaseURL.String, err)
	}

	fmt.Fprintln(out)
	framework.PrintFilterDescription(out, p.filters)
	fmt.Fprintln(out, "Running test suite")

	var options []orchestrator.Option
	if p.testTimeout > 0 {
		options = append(options, orchestrator.WithTestTimeout(time.Duration(p.testTimeout)*time.Second))
	}
	root := smoketests.NewContainer(cfg, console, loggers)
	results := smoketests.RunTestSuite(root, p.filters.AsFilter, console, options...)

	fmt.Fprintln(out)
	framework.PrintResults(out, results)
	if !results.OK() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To run the failed tests again:")
		fmt.Fprintf(out, "  %s\n", rerunCommand(filepath.Base(os.Args[0]), p, results.Failures))
		return errTestsFailed
	}
	return nil
}
