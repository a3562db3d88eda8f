package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key")

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	return s
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	return signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
}

func TestClock_IsExpired_Buffer(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	clock := &Clock{Now: func() time.Time { return now }, Buffer: ExpiryBuffer}

	tests := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{name: "long past", exp: now.Add(-time.Hour), want: true},
		{name: "now", exp: now, want: true},
		{name: "inside buffer", exp: now.Add(5 * time.Second), want: true},
		{name: "exactly at buffer edge", exp: now.Add(10 * time.Second), want: true},
		{name: "just past buffer", exp: now.Add(11 * time.Second), want: false},
		{name: "an hour ahead", exp: now.Add(time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clock.IsExpired(tokenExpiringAt(t, tt.exp)))
		})
	}
}

func TestClock_IsExpired_FailsClosed(t *testing.T) {
	clock := NewClock()

	noExp := signed(t, jwt.MapClaims{"email": "a@example.com"})

	for name, credential := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"two segments": "abc.def",
		"bad base64":   "a.@@@.c",
		"missing exp":  noExp,
		"exp a string": signed(t, jwt.MapClaims{"exp": "tomorrow"}),
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, clock.IsExpired(credential))
		})
	}
}

func TestIsExpired_WallClock(t *testing.T) {
	assert.False(t, IsExpired(tokenExpiringAt(t, time.Now().Add(time.Hour))))
	assert.True(t, IsExpired(tokenExpiringAt(t, time.Now().Add(time.Second))))
}

func TestClaimsFromCredential(t *testing.T) {
	credential := signed(t, jwt.MapClaims{
		"email":   "ada@example.com",
		"name":    "Ada Lovelace",
		"picture": "https://example.com/ada.png",
		"iss":     "https://accounts.google.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	claims, err := ClaimsFromCredential(credential)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada Lovelace", claims.Name)
	assert.Equal(t, "https://example.com/ada.png", claims.Picture)
	assert.Equal(t, "https://accounts.google.com", claims.Issuer)

	_, err = ClaimsFromCredential(signed(t, jwt.MapClaims{"name": "x"}))
	require.ErrorIs(t, err, ErrNoEmail)

	_, err = ClaimsFromCredential("junk")
	require.Error(t, err)
}
