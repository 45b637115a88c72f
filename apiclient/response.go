package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Response is the transport-independent result of an API call.
type Response struct {
	Status     int
	StatusText string
	Headers    http.Header
	Body       []byte
}

// OK is true for any 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// JSON parses the response body. An empty body is returned as a null value.
func (r *Response) JSON() (ldvalue.Value, error) {
	if len(r.Body) == 0 {
		return ldvalue.Null(), nil
	}
	var v ldvalue.Value
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return ldvalue.Null(), fmt.Errorf("malformed JSON response (HTTP %d): %s", r.Status, string(r.Body))
	}
	return v, nil
}

func (r *Response) String() string {
	return fmt.Sprintf("HTTP %d %s", r.Status, r.StatusText)
}
