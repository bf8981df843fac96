package http

import (
	"net/http"

	"github.com/goccy/go-json"
)

// ProgressFunc receives the number of body bytes written so far and the total.
type ProgressFunc func(loaded, total int64)

// Request is the client-side view of an outgoing request. Interceptors may
// mutate any field before it is sent.
type Request struct {
	URL     string
	Method  string
	Body    any
	Headers map[string]string

	// Metadata is opaque to the client; handlers use it to tag requests
	// (e.g. "already retried"). Use unexported key types to avoid collisions.
	Metadata map[any]any

	// Progress, when set, is called while the request body is written.
	Progress ProgressFunc
}

// Clone returns a copy with independent Headers and Metadata maps.
func (r *Request) Clone() *Request {
	c := *r
	c.Headers = make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		c.Headers[k] = v
	}
	c.Metadata = make(map[any]any, len(r.Metadata))
	for k, v := range r.Metadata {
		c.Metadata[k] = v
	}
	return &c
}

// RawBody is sent as-is, without JSON encoding.
type RawBody struct {
	Data        []byte
	ContentType string
}

// Response represents an HTTP response with a fully read body.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
}

// Get returns the first value of the named response header.
func (r *Response) Get(key string) string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get(key)
}

// Has reports whether the named response header is present.
func (r *Response) Has(key string) bool {
	if r.Header == nil {
		return false
	}
	_, ok := r.Header[http.CanonicalHeaderKey(key)]
	return ok
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// IsErrorStatus reports whether status must be treated as a failed request.
// Status 0 is what a transport reports when no real response was received.
func IsErrorStatus(status int) bool {
	return status == 0 || (status >= 400 && status < 600)
}
