package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned for tokens that are not JWTs.
var ErrOpaqueToken = errors.New("jwt: opaque token")

// Claims is the subset of registered claims surfaced to callers.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasExpiry reports whether the token carried an exp claim.
func (c Claims) HasExpiry() bool {
	return !c.ExpiresAt.IsZero()
}

// Expired reports whether the token's exp is at or before now minus leeway.
// Tokens without an exp claim never expire locally.
func (c Claims) Expired(now time.Time, leeway time.Duration) bool {
	if !c.HasExpiry() {
		return false
	}
	return !now.Add(-leeway).Before(c.ExpiresAt)
}

var parser = jwt.NewParser()

// Inspect decodes token's claims without verifying its signature.
func Inspect(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return Claims{}, ErrOpaqueToken
	}

	var registered jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(token, &registered); err != nil {
		return Claims{}, errors.Join(ErrOpaqueToken, err)
	}

	out := Claims{
		Subject:  registered.Subject,
		Issuer:   registered.Issuer,
		Audience: []string(registered.Audience),
	}
	if registered.IssuedAt != nil {
		out.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		out.ExpiresAt = registered.ExpiresAt.Time
	}
	return out, nil
}

// ExpiresAt returns the token's expiry, or the zero time when it has none or
// is opaque.
func ExpiresAt(token string) time.Time {
	claims, err := Inspect(token)
	if err != nil {
		return time.Time{}
	}
	return claims.ExpiresAt
}
