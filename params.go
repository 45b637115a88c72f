package main

import (
	"regexp"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/launchdarkly/test-scaffold/framework"
)

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// rerunCommand builds a command line that runs only the failed tests again, with the same
// service and configuration.
func rerunCommand(program string, p *runParams, failures []framework.TestResult) string {
	var b commandBuilder
	b.add(program, "run", "--url", p.url)
	if p.configPath != "" {
		b.add("--config", p.configPath)
	}
	for _, f := range failures {
		b.add("--run", rerunPattern(f.TestID))
	}
	for _, pattern := range p.filters.MustNotMatch.Patterns() {
		b.add("--skip", pattern)
	}
	b.add("--debug")
	return b.String()
}

// rerunPattern matches a test and each of its ancestors, since filters are applied at every
// level of the test path: for users/create it is ^users(/create)?$.
func rerunPattern(id framework.TestID) string {
	if len(id.Path) == 0 {
		return "^$"
	}
	pattern := regexp.QuoteMeta(id.Path[0])
	tail := ""
	for _, name := range id.Path[1:] {
		pattern += "(/" + regexp.QuoteMeta(name)
		tail += ")?"
	}
	return "^" + pattern + tail + "$"
}
