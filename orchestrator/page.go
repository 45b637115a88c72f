package orchestrator

import "context"

// Page is a handle to a browser page. Implementations wrap a browser-automation engine and are
// registered in the container under container.TokenPage or container.TokenAuthenticatedPage.
type Page interface {
	Goto(ctx context.Context, url string) error
	Screenshot(ctx context.Context) ([]byte, error)
}
