package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when an access token is not a JSON Web Token.
var ErrNotJWT = errors.New("access token is not a JWT")

// TokenClaims are the registered claims read from a JWT access token.
// The signature is not verified; the backend does that.
type TokenClaims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// ParseTokenClaims decodes the claims of a JWT without verifying it.
func ParseTokenClaims(token string) (TokenClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, errors.Join(ErrNotJWT, err)
	}

	out := TokenClaims{Subject: claims.Subject, Issuer: claims.Issuer}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Expired reports whether the token had expired at now. Tokens without an
// exp claim never expire.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
