// Package auth authenticates against the backend and keeps outgoing
// requests authorized, refreshing the access token when the server
// rejects it.
package auth

import (
	"context"
	"errors"

	httpclient "github.com/vedsharma/adminkit/internal/http"
)

// Credentials are the user-supplied login and password.
type Credentials struct {
	Login    string
	Password string
}

// Tokens is the result of a successful authentication or refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// WrongCredentialsError means the server rejected the credentials (or the
// refresh token) rather than failing for some other reason.
type WrongCredentialsError struct {
	Message string
	Err     error
}

func (e *WrongCredentialsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "wrong credentials"
}

func (e *WrongCredentialsError) Unwrap() error {
	return e.Err
}

// IsWrongCredentials reports whether err is a *WrongCredentialsError.
func IsWrongCredentials(err error) bool {
	var wc *WrongCredentialsError
	return errors.As(err, &wc)
}

// Provider is what the session talks to.
type Provider interface {
	Authenticate(ctx context.Context, creds Credentials) (Tokens, error)
	Logout(ctx context.Context) error

	// AuthorizeHTTPRequests (re)wires the HTTP client for the given tokens.
	// Empty tokens remove any previous wiring.
	AuthorizeHTTPRequests(accessToken, refreshToken string)

	// OnRefresh registers a listener for tokens obtained by a refresh.
	OnRefresh(fn func(Tokens)) (remove func())
}

// Strategy is the provider-specific policy used by Authorizer.
type Strategy interface {
	// AuthorizeRequest attaches the access token to req.
	AuthorizeRequest(req *httpclient.Request, token string)

	// IsRequestRecoverable reports whether a refresh may fix the failure.
	IsRequestRecoverable(err *httpclient.RequestError) bool

	// RecoverAccessToken exchanges a refresh token for new tokens.
	RecoverAccessToken(ctx context.Context, refreshToken string) (Tokens, error)
}
