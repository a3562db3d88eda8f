package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoEmail = errors.New("credential has no email claim")

// IdentityClaims are the profile claims an identity provider puts in its ID
// token.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ClaimsFromCredential decodes the identity claims of an ID token without
// verifying it.
func ClaimsFromCredential(credential string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	if claims.Email == "" {
		return nil, ErrNoEmail
	}
	return claims, nil
}
