package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/careerkit/internal/client/auth"
	"github.com/dmitrijs2005/careerkit/internal/client/notice"
	"github.com/dmitrijs2005/careerkit/internal/client/session"
	"github.com/dmitrijs2005/careerkit/internal/shared"
)

// getSecret is an indirection used to facilitate testing.
var getSecret = GetSecret

// Login signs in with an ID token pasted from the identity provider's
// sign-in page. The token's claims are decoded locally to build the
// session; the backend verifies the token on every call.
//
// The pasted bytes are wiped before returning.
func (a *App) Login(ctx context.Context) error {
	if sess, ok := a.sessions.Current(ctx); ok {
		a.notify(notice.Info, fmt.Sprintf("Already signed in as %s.", sess.Email))
		return nil
	}

	secret, err := getSecret(a.in, "Paste your Google ID token", a.out)
	if err != nil {
		return fail("Could not read the token", err)
	}
	defer shared.WipeByteArray(secret)
	if len(secret) == 0 {
		return nil
	}
	credential := string(secret)

	claims, err := auth.ClaimsFromCredential(credential)
	if err != nil {
		return fail("That does not look like a valid ID token", err)
	}
	if a.clock.IsExpired(credential) {
		return fail("This token has expired. Sign in again to get a fresh one", nil)
	}

	sess := session.Session{
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
		Credential:  credential,
		IssuedVia:   claims.Issuer,
	}
	if err := a.sessions.SignIn(ctx, sess); err != nil {
		return fail("Sign-in failed", err)
	}
	a.notify(notice.Success, fmt.Sprintf("Signed in as %s (%s).", displayName(&sess), sess.Email))
	a.log.Info(ctx, "signed in", "email", sess.Email, "issuer", sess.IssuedVia)

	a.restorePreferences(ctx)
	_, err = a.refreshProfile(ctx)
	return err
}

// Logout clears the session and every piece of state cached for the user.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn(ctx) {
		a.notify(notice.Info, "You are not signed in.")
		return nil
	}
	if err := a.sessions.SignOut(ctx, session.ReasonUser); err != nil {
		return fail("Sign-out failed", err)
	}
	return nil
}
