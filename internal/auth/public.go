package auth

import "context"

// PublicProvider is used when the backend needs no authentication. It
// accepts any credentials and never touches requests.
type PublicProvider struct{}

var publicTokens = Tokens{AccessToken: "access", RefreshToken: "refresh"}

func (PublicProvider) Authenticate(context.Context, Credentials) (Tokens, error) {
	return publicTokens, nil
}

func (PublicProvider) Logout(context.Context) error { return nil }

func (PublicProvider) AuthorizeHTTPRequests(string, string) {}

func (PublicProvider) OnRefresh(func(Tokens)) func() { return func() {} }

func (PublicProvider) RecoverAccessToken(context.Context, string) (Tokens, error) {
	return publicTokens, nil
}
