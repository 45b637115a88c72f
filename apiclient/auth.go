package apiclient

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const loginPath = "/api/auth/login"

// ErrAuthenticationFailed is returned by Login when the service rejects the credentials or
// does not return a token.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Credentials identify the account used by the authenticated test strategies.
type Credentials struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
}

// Login exchanges credentials for a bearer token.
func Login(ctx context.Context, client Client, creds Credentials) (string, error) {
	resp, err := client.Post(ctx, loginPath, creds)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("%w for %s: %s", ErrAuthenticationFailed, creds.Email, resp)
	}
	body, err := resp.JSON()
	if err != nil {
		return "", err
	}
	token := body.GetByKey("token")
	if token.Type() != ldvalue.StringType || token.StringValue() == "" {
		return "", fmt.Errorf("%w for %s: response did not contain a token", ErrAuthenticationFailed, creds.Email)
	}
	return token.StringValue(), nil
}

// Authenticate logs in and returns a copy of the client that sends the resulting token.
func Authenticate(ctx context.Context, client *HTTPClient, creds Credentials) (*HTTPClient, error) {
	token, err := Login(ctx, client, creds)
	if err != nil {
		return nil, err
	}
	return client.With(WithBearerToken(token)), nil
}
