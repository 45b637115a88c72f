package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/launchdarkly/test-scaffold/framework/container"
)

// ErrUnknownTestStrategy is returned for a strategy outside the fixed set.
var ErrUnknownTestStrategy = errors.New("unknown test strategy")

// Strategy determines which pre-provisioned handles a test body receives.
type Strategy string

const (
	UI                  Strategy = "UI"
	API                 Strategy = "API"
	AuthenticatedUI     Strategy = "AUTHENTICATED_UI"
	AuthenticatedAPI    Strategy = "AUTHENTICATED_API"
	Hybrid              Strategy = "HYBRID"
	AuthenticatedHybrid Strategy = "AUTHENTICATED_HYBRID"
)

// InputTokens names the container tokens that supply a strategy's page and request handles. An
// empty token means the strategy does not use that handle.
type InputTokens struct {
	Page    container.Token
	Request container.Token
}

var strategyInputs = map[Strategy]InputTokens{
	UI:                  {Page: container.TokenPage},
	API:                 {Request: container.TokenAPIClient},
	AuthenticatedUI:     {Page: container.TokenAuthenticatedPage},
	AuthenticatedAPI:    {Request: container.TokenAuthenticatedAPIClient},
	Hybrid:              {Page: container.TokenPage, Request: container.TokenAPIClient},
	AuthenticatedHybrid: {Page: container.TokenAuthenticatedPage, Request: container.TokenAuthenticatedAPIClient},
}

// AllStrategies returns every valid strategy.
func AllStrategies() []Strategy {
	return []Strategy{UI, API, AuthenticatedUI, AuthenticatedAPI, Hybrid, AuthenticatedHybrid}
}

// ParseStrategy accepts a strategy name in any letter case, with either underscores or hyphens.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if _, ok := strategyInputs[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTestStrategy, s)
	}
	return st, nil
}

// Inputs returns the tokens that the strategy draws its handles from.
func (s Strategy) Inputs() (InputTokens, error) {
	in, ok := strategyInputs[s]
	if !ok {
		return InputTokens{}, fmt.Errorf("%w: %q", ErrUnknownTestStrategy, string(s))
	}
	return in, nil
}

// Authenticated is true for the strategies that use pre-authenticated handles.
func (s Strategy) Authenticated() bool {
	return strings.HasPrefix(string(s), "AUTHENTICATED_")
}
