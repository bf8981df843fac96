package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/vedsharma/adminkit/internal/logging"
)

const (
	// MaxResponseSize limits response body to 50MB to prevent memory exhaustion
	MaxResponseSize = 50 * 1024 * 1024

	// Default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second
)

// RequestInterceptor mutates a request before it is sent.
type RequestInterceptor func(req *Request)

// RetryFunc re-runs the full send pipeline, interceptors included.
// A nil request retries a copy of the original one.
type RetryFunc func(ctx context.Context, req *Request) (*Response, error)

// ErrorHandler may recover a failed request. Returning (nil, nil) passes the
// error on to the next handler; a non-nil error aborts the chain.
type ErrorHandler func(ctx context.Context, err *RequestError, retry RetryFunc) (*Response, error)

// Sender performs the actual transfer.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Client sends requests through an interceptor and error-recovery pipeline.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	sender     Sender
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*Response]

	interceptors collection[RequestInterceptor]
	handlers     collection[ErrorHandler]
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// NewClient creates a new Client. Without WithSender it sends through net/http.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}
	if c.sender == nil {
		c.sender = NewNetSender(c.baseURL, c.httpClient)
	}
	return c
}

// WithBaseURL resolves relative request URLs against baseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the default *http.Client. Nil is ignored.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the underlying *http.Client,
// whichever option supplies it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSender replaces the transport entirely.
func WithSender(s Sender) Option {
	return func(c *Client) {
		c.sender = s
	}
}

// WithRateLimit throttles outgoing requests to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCircuitBreaker wraps the transport in a circuit breaker. Transport
// failures, status 0 and 5xx responses count as failures.
func WithCircuitBreaker(name string) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
					Msg("circuit breaker state change")
			},
		})
	}
}

// AddRequestInterceptor registers fn and returns a function that removes it.
func (c *Client) AddRequestInterceptor(fn RequestInterceptor) (remove func()) {
	return c.interceptors.add(fn)
}

// AddErrorHandler registers fn and returns a function that removes it.
func (c *Client) AddErrorHandler(fn ErrorHandler) (remove func()) {
	return c.handlers.add(fn)
}

// Fetch sends a request. Error statuses (0, 4xx, 5xx) that no error handler
// recovers are returned as *RequestError.
func (c *Client) Fetch(ctx context.Context, url, method string, body any, headers map[string]string, metadata map[any]any) (*Response, error) {
	req := &Request{
		URL:      url,
		Method:   method,
		Body:     body,
		Headers:  make(map[string]string, len(headers)),
		Metadata: make(map[any]any, len(metadata)),
	}
	for k, v := range headers {
		req.Headers[k] = v
	}
	for k, v := range metadata {
		req.Metadata[k] = v
	}
	return c.Do(ctx, req)
}

// Do runs req through interceptors, the transport and the error handlers.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	if req.Metadata == nil {
		req.Metadata = map[any]any{}
	}
	for _, fn := range c.interceptors.snapshot() {
		fn(req)
	}

	res, err := c.send(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return c.handleError(ctx, &RequestError{Request: req, Err: err})
	}
	if IsErrorStatus(res.Status) {
		return c.handleError(ctx, &RequestError{Request: req, Response: res})
	}
	return res, nil
}

func (c *Client) handleError(ctx context.Context, reqErr *RequestError) (*Response, error) {
	retry := func(ctx context.Context, req *Request) (*Response, error) {
		if req == nil {
			req = reqErr.Request.Clone()
		}
		return c.Do(ctx, req)
	}

	for _, handle := range c.handlers.snapshot() {
		res, err := handle(ctx, reqErr, retry)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}

	if reqErr.Response != nil && !IsErrorStatus(reqErr.Response.Status) {
		return reqErr.Response, nil
	}
	return nil, reqErr
}

// serverFailure lets an error-status response count against the breaker
// while still reaching the error handlers.
type serverFailure struct {
	res *Response
}

func (e *serverFailure) Error() string {
	return "server failure: " + e.res.StatusText
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	var (
		res *Response
		err error
	)
	if c.breaker != nil {
		res, err = c.breaker.Execute(func() (*Response, error) {
			r, sendErr := c.sender.Send(ctx, req)
			if sendErr != nil {
				return nil, sendErr
			}
			if r.Status == 0 || r.Status >= 500 {
				return r, &serverFailure{res: r}
			}
			return r, nil
		})
		var sf *serverFailure
		if errors.As(err, &sf) {
			res, err = sf.res, nil
		}
	} else {
		res, err = c.sender.Send(ctx, req)
	}

	event := logging.Ctx(ctx).Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Dur("duration", time.Since(start))
	if err != nil {
		event.Err(err).Msg("http request failed")
		return nil, err
	}
	event.Int("status", res.Status).Msg("http request")
	return res, nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.Fetch(ctx, url, http.MethodGet, nil, headers, nil)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, url string, body any, headers map[string]string) (*Response, error) {
	return c.Fetch(ctx, url, http.MethodPost, body, headers, nil)
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, url string, body any, headers map[string]string) (*Response, error) {
	return c.Fetch(ctx, url, http.MethodPut, body, headers, nil)
}

// Patch performs a PATCH request
func (c *Client) Patch(ctx context.Context, url string, body any, headers map[string]string) (*Response, error) {
	return c.Fetch(ctx, url, http.MethodPatch, body, headers, nil)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, url string, body any, headers map[string]string) (*Response, error) {
	return c.Fetch(ctx, url, http.MethodDelete, body, headers, nil)
}

// collection is an ordered, removable list of callbacks.
type collection[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	items  []entry[T]
}

type entry[T any] struct {
	id uint64
	fn T
}

func (c *collection[T]) add(fn T) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.items = append(c.items, entry[T]{id: id, fn: fn})
	return func() { c.remove(id) }
}

func (c *collection[T]) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.items {
		if e.id == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	for i, e := range c.items {
		out[i] = e.fn
	}
	return out
}
