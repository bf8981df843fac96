package http

import (
	"errors"
	"fmt"
)

// RequestError is returned for error statuses and transport failures.
// Response is nil when no response was received.
type RequestError struct {
	Request  *Request
	Response *Response
	Err      error
}

func (e *RequestError) Error() string {
	if e.Response != nil {
		return fmt.Sprintf("http request error: %s %s: status %d %s",
			e.Request.Method, e.Request.URL, e.Response.Status, e.Response.StatusText)
	}
	if e.Err != nil {
		return fmt.Sprintf("http request error: %s %s: %v", e.Request.Method, e.Request.URL, e.Err)
	}
	return fmt.Sprintf("http request error: %s %s", e.Request.Method, e.Request.URL)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Status returns the response status, or 0 when there was no response.
func (e *RequestError) Status() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.Status
}

// StatusOf returns the status carried by a *RequestError in err's chain, or 0.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status()
	}
	return 0
}

// IsStatus reports whether err carries one of the given response statuses.
func IsStatus(err error, statuses ...int) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Response == nil {
		return false
	}
	for _, s := range statuses {
		if reqErr.Response.Status == s {
			return true
		}
	}
	return false
}

// IsUnauthorized returns true for 401 Unauthorized responses.
func IsUnauthorized(err error) bool {
	return IsStatus(err, 401)
}

// IsNotFound returns true for 404 Not Found responses.
func IsNotFound(err error) bool {
	return IsStatus(err, 404)
}
