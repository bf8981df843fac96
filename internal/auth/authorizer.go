package auth

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	httpclient "github.com/vedsharma/adminkit/internal/http"
	"github.com/vedsharma/adminkit/internal/logging"
)

// Request metadata keys.
type (
	retriedKey struct{}
	tokenKey   struct{}
)

// Authorizer wires a Strategy into an HTTP client: one interceptor that
// attaches the access token and, when a refresh token is known, one error
// handler that refreshes and retries.
type Authorizer struct {
	client   *httpclient.Client
	strategy Strategy

	mu        sync.Mutex
	tokens    Tokens
	unwire    []func()
	listeners map[int]func(Tokens)
	nextID    int

	refresh singleflight.Group
}

// NewAuthorizer returns an authorizer with nothing wired yet.
func NewAuthorizer(client *httpclient.Client, strategy Strategy) *Authorizer {
	return &Authorizer{
		client:    client,
		strategy:  strategy,
		listeners: make(map[int]func(Tokens)),
	}
}

// AuthorizeHTTPRequests replaces the current wiring.
func (a *Authorizer) AuthorizeHTTPRequests(accessToken, refreshToken string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, fn := range a.unwire {
		fn()
	}
	a.unwire = nil
	a.tokens = Tokens{AccessToken: accessToken, RefreshToken: refreshToken}

	// No access token means signed out: nothing to attach or refresh.
	if accessToken == "" {
		return
	}

	a.unwire = append(a.unwire, a.client.AddRequestInterceptor(a.intercept))
	if refreshToken != "" {
		a.unwire = append(a.unwire, a.client.AddErrorHandler(a.recover))
	}
}

// Tokens returns the tokens currently attached to requests.
func (a *Authorizer) Tokens() Tokens {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tokens
}

// OnRefresh registers fn for tokens obtained by a refresh.
func (a *Authorizer) OnRefresh(fn func(Tokens)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *Authorizer) intercept(req *httpclient.Request) {
	token := a.Tokens().AccessToken
	if token == "" {
		return
	}
	req.Metadata[tokenKey{}] = token
	a.strategy.AuthorizeRequest(req, token)
}

func (a *Authorizer) recover(ctx context.Context, reqErr *httpclient.RequestError, retry httpclient.RetryFunc) (*httpclient.Response, error) {
	req := reqErr.Request
	if req.Metadata[retriedKey{}] == true || !a.strategy.IsRequestRecoverable(reqErr) {
		return nil, nil
	}

	current := a.Tokens()
	log := logging.Ctx(ctx)

	// Another request already refreshed while this one was in flight.
	if sent, _ := req.Metadata[tokenKey{}].(string); sent != "" && sent != current.AccessToken {
		log.Debug().Str("url", req.URL).Msg("Retrying with newer access token")
		return retry(ctx, markRetried(req))
	}

	if current.RefreshToken == "" {
		return nil, nil
	}

	if _, err := a.refreshTokens(ctx, current.RefreshToken); err != nil {
		log.Warn().Err(err).Str("url", req.URL).Msg("Access token refresh failed")
		return nil, nil
	}

	return retry(ctx, markRetried(req))
}

// refreshTokens performs at most one refresh per refresh token at a time;
// concurrent callers share the result.
func (a *Authorizer) refreshTokens(ctx context.Context, refreshToken string) (Tokens, error) {
	v, err, shared := a.refresh.Do(refreshToken, func() (any, error) {
		tokens, err := a.strategy.RecoverAccessToken(context.WithoutCancel(ctx), refreshToken)
		if err != nil {
			return Tokens{}, err
		}
		if tokens.RefreshToken == "" {
			tokens.RefreshToken = refreshToken
		}
		a.applyRefresh(tokens)
		return tokens, nil
	})
	if err != nil {
		return Tokens{}, err
	}
	logging.Ctx(ctx).Debug().Bool("shared", shared).Msg("Access token refreshed")
	return v.(Tokens), nil
}

func (a *Authorizer) applyRefresh(tokens Tokens) {
	a.mu.Lock()
	a.tokens = tokens
	listeners := make([]func(Tokens), 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(tokens)
	}
}

func markRetried(req *httpclient.Request) *httpclient.Request {
	next := req.Clone()
	next.Metadata[retriedKey{}] = true
	return next
}
