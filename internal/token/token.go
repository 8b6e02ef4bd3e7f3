package token

import (
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"time"
)

var (
	ErrNotJWT     = errors.New("token is not a jwt")
	ErrNoExpiry   = errors.New("token has no exp claim")
	ErrEmptyToken = errors.New("token is empty")
)

// Claims are the registered claims the client cares about.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Inspect decodes the claims of a bearer token without verifying its
// signature. The server owns verification; the client only reads exp to
// decide when to refresh.
func Inspect(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrEmptyToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	out := &Claims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	return out, nil
}

// ExpiresWithin reports whether raw expires before now+leeway. It returns
// ErrNotJWT for opaque tokens and ErrNoExpiry when exp is missing.
func ExpiresWithin(raw string, leeway time.Duration, now time.Time) (bool, error) {
	claims, err := Inspect(raw)
	if err != nil {
		return false, err
	}
	if claims.ExpiresAt.IsZero() {
		return false, ErrNoExpiry
	}
	return !claims.ExpiresAt.After(now.Add(leeway)), nil
}
