// Package auth inspects bearer credentials on the client side. Nothing here
// verifies signatures: the backend is the authority on validity, the client
// only needs to know whether a credential is still worth sending.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryBuffer treats credentials that expire within this window as already
// expired so a request is never dispatched with a token that dies mid-flight.
const ExpiryBuffer = 10 * time.Second

// Clock decides credential expiry against an injectable time source.
type Clock struct {
	Now    func() time.Time
	Buffer time.Duration
}

// NewClock returns a Clock on wall time with the default buffer.
func NewClock() *Clock {
	return &Clock{Now: time.Now, Buffer: ExpiryBuffer}
}

// IsExpired reports whether credential is unusable. Fails closed: anything
// that cannot be decoded, or that carries no exp claim, is expired.
func (c *Clock) IsExpired(credential string) bool {
	if credential == "" {
		return true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return !exp.Time.After(c.Now().Add(c.Buffer))
}

// IsExpired checks credential against wall time.
func IsExpired(credential string) bool {
	return NewClock().IsExpired(credential)
}
