package auth

import (
	"context"
	"fmt"
	"net/http"

	httpclient "github.com/vedsharma/adminkit/internal/http"
	"github.com/vedsharma/adminkit/internal/logging"
)

// Endpoints are the auth URLs. An empty Logout means logout is local only.
type Endpoints struct {
	Authenticate string `koanf:"authenticate"`
	Refresh      string `koanf:"refresh"`
	Logout       string `koanf:"logout"`
}

// BodyKeys name the JSON fields used in auth request and response bodies.
type BodyKeys struct {
	AccessToken  string `koanf:"access_token"`
	RefreshToken string `koanf:"refresh_token"`
	Login        string `koanf:"login"`
	Password     string `koanf:"password"`

	// RefreshTokenInRequestBody names the refresh token field sent to the
	// refresh endpoint. Empty means RefreshToken.
	RefreshTokenInRequestBody string `koanf:"refresh_token_in_request_body"`
}

// DefaultEndpoints returns the stock endpoint paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Authenticate: "/api/auth",
		Refresh:      "/api/auth/refresh",
	}
}

// DefaultBodyKeys returns the stock body keys.
func DefaultBodyKeys() BodyKeys {
	return BodyKeys{
		AccessToken:  "token",
		RefreshToken: "refresh_token",
		Login:        "username",
		Password:     "password",
	}
}

// HTTPTokenProvider authenticates with a JSON POST and sends the access
// token as a bearer credential.
type HTTPTokenProvider struct {
	*Authorizer

	client    *httpclient.Client
	endpoints Endpoints
	keys      BodyKeys
}

// TokenOption configures an HTTPTokenProvider.
type TokenOption func(*HTTPTokenProvider)

// WithEndpoints overrides the non-empty fields of e.
func WithEndpoints(e Endpoints) TokenOption {
	return func(p *HTTPTokenProvider) {
		if e.Authenticate != "" {
			p.endpoints.Authenticate = e.Authenticate
		}
		if e.Refresh != "" {
			p.endpoints.Refresh = e.Refresh
		}
		if e.Logout != "" {
			p.endpoints.Logout = e.Logout
		}
	}
}

// WithBodyKeys overrides the non-empty fields of k.
func WithBodyKeys(k BodyKeys) TokenOption {
	return func(p *HTTPTokenProvider) {
		if k.AccessToken != "" {
			p.keys.AccessToken = k.AccessToken
		}
		if k.RefreshToken != "" {
			p.keys.RefreshToken = k.RefreshToken
		}
		if k.Login != "" {
			p.keys.Login = k.Login
		}
		if k.Password != "" {
			p.keys.Password = k.Password
		}
		if k.RefreshTokenInRequestBody != "" {
			p.keys.RefreshTokenInRequestBody = k.RefreshTokenInRequestBody
		}
	}
}

// NewHTTPTokenProvider creates a provider using client for all calls.
func NewHTTPTokenProvider(client *httpclient.Client, opts ...TokenOption) *HTTPTokenProvider {
	p := &HTTPTokenProvider{
		client:    client,
		endpoints: DefaultEndpoints(),
		keys:      DefaultBodyKeys(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Authorizer = NewAuthorizer(client, p)
	return p
}

// Endpoints returns the effective endpoints.
func (p *HTTPTokenProvider) Endpoints() Endpoints {
	return p.endpoints
}

// BodyKeys returns the effective body keys.
func (p *HTTPTokenProvider) BodyKeys() BodyKeys {
	return p.keys
}

// Authenticate posts the credentials to the authenticate endpoint.
func (p *HTTPTokenProvider) Authenticate(ctx context.Context, creds Credentials) (Tokens, error) {
	logging.Ctx(ctx).Debug().Str("login", creds.Login).Msg("Authenticating")
	res, err := p.client.Post(ctx, p.endpoints.Authenticate, map[string]string{
		p.keys.Login:    creds.Login,
		p.keys.Password: creds.Password,
	}, nil)
	return p.tokensFrom(res, err)
}

// RecoverAccessToken posts the refresh token to the refresh endpoint.
func (p *HTTPTokenProvider) RecoverAccessToken(ctx context.Context, refreshToken string) (Tokens, error) {
	key := p.keys.RefreshTokenInRequestBody
	if key == "" {
		key = p.keys.RefreshToken
	}
	res, err := p.client.Post(ctx, p.endpoints.Refresh, map[string]string{key: refreshToken}, nil)
	return p.tokensFrom(res, err)
}

// Logout calls the logout endpoint when one is configured.
func (p *HTTPTokenProvider) Logout(ctx context.Context) error {
	if p.endpoints.Logout == "" {
		return nil
	}
	_, err := p.client.Post(ctx, p.endpoints.Logout, nil, nil)
	return err
}

// AuthorizeRequest sets the bearer Authorization header.
func (p *HTTPTokenProvider) AuthorizeRequest(req *httpclient.Request, token string) {
	req.Headers["Authorization"] = "Bearer " + token
}

// IsRequestRecoverable is true for 401/403 responses to anything but the
// auth endpoints themselves.
func (p *HTTPTokenProvider) IsRequestRecoverable(err *httpclient.RequestError) bool {
	status := err.Status()
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return false
	}
	switch err.Request.URL {
	case p.endpoints.Authenticate, p.endpoints.Refresh, p.endpoints.Logout:
		return false
	}
	return true
}

func (p *HTTPTokenProvider) tokensFrom(res *httpclient.Response, err error) (Tokens, error) {
	if err != nil {
		if httpclient.IsStatus(err, http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity) {
			return Tokens{}, &WrongCredentialsError{Err: err}
		}
		return Tokens{}, err
	}

	var body map[string]any
	if err := res.Decode(&body); err != nil {
		return Tokens{}, fmt.Errorf("failed to parse auth response: %w", err)
	}
	return Tokens{
		AccessToken:  stringValue(body[p.keys.AccessToken]),
		RefreshToken: stringValue(body[p.keys.RefreshToken]),
	}, nil
}

// stringValue converts a token field to a string. Missing, null, false
// and zero values become "".
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		if t == 0 {
			return ""
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}
