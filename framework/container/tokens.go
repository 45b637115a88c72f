package container

// Token identifies a registrable capability. Tokens are opaque strings; the same token may be
// registered independently at each level of a container hierarchy.
type Token string

// Tokens used by convention between the orchestrator and test code. Test authors are free to
// register anything else under their own tokens.
const (
	TokenAPIClient              Token = "IApiClient"
	TokenAuthenticatedAPIClient Token = "IAuthenticatedApiClient"
	TokenReporter               Token = "IReporter"
	TokenPage                   Token = "IPage"
	TokenAuthenticatedPage      Token = "IAuthenticatedPage"
	TokenConfig                 Token = "IConfig"
	TokenLogger                 Token = "ILogger"
)
