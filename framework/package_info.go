// Package framework contains the low-level test infrastructure that the rest of the scaffolding
// is built on.
//
// The general model is:
//
// 1. There is a notion of a test context, Context, which is similar to Go's *testing.T, allowing
// pieces of test logic to be associated with a test identifier and to accumulate success/failure
// results. It can be passed to the testify assert and require packages.
//
// 2. Each test captures its own debug output, which the TestLogger decides whether to show.
//
// 3. Subpackages provide the runtime support that tests are written against: a service
// container (framework/container) and a bounded retry executor (framework/retry).
//
// The domain-specific code that knows what is being tested (entity factories, API clients, test
// strategies) lives in the fixtures, apiclient and orchestrator packages.
package framework
