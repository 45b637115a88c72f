// Package apiclient is the HTTP adapter that test code and entity factories use to talk to the
// system under test. Callers depend on the Client interface only; HTTPClient is the default
// implementation.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/launchdarkly/test-scaffold/framework"
)

// Client is the capability that entity factories and API-level tests consume.
type Client interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string, data interface{}) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)
}

// HTTPClient sends JSON requests to paths relative to a base URL.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	logger     framework.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = httpClient }
}

// WithHeader adds a header to every request.
func WithHeader(name, value string) Option {
	return func(c *HTTPClient) { c.headers.Set(name, value) }
}

// WithBearerToken adds an Authorization header to every request.
func WithBearerToken(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithLogger sets a logger that receives one line per request.
func WithLogger(logger framework.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an HTTPClient for the given base URL.
func New(baseURL string, options ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
		logger:     framework.NullLogger(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// BaseURL returns the base URL that request paths are appended to.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// With returns a copy of the client with additional options applied. The original is unchanged.
func (c *HTTPClient) With(options ...Option) *HTTPClient {
	c1 := *c
	c1.headers = c.headers.Clone()
	for _, o := range options {
		o(&c1)
	}
	return &c1
}

func (c *HTTPClient) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *HTTPClient) Post(ctx context.Context, path string, data interface{}) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, data)
}

func (c *HTTPClient) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, data interface{}) (*Response, error) {
	var body io.Reader
	var bodyData []byte
	if data != nil {
		var err error
		if bodyData, err = json.Marshal(data); err != nil {
			return nil, fmt.Errorf("could not encode request body for %s %s: %w", method, path, err)
		}
		body = bytes.NewBuffer(bodyData)
	}
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for name, values := range c.headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if bodyData != nil {
		c.logger.Printf("%s %s %s", method, url, string(bodyData))
	} else {
		c.logger.Printf("%s %s", method, url)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body from %s %s: %w", method, url, err)
	}
	c.logger.Printf("  => HTTP %d", resp.StatusCode)

	return &Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    resp.Header,
		Body:       respData,
	}, nil
}

func statusText(resp *http.Response) string {
	// resp.Status is "200 OK"; keep only the reason phrase
	if i := strings.IndexByte(resp.Status, ' '); i >= 0 {
		return resp.Status[i+1:]
	}
	return http.StatusText(resp.StatusCode)
}
