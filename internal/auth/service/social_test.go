package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/provider"
)

func TestSocialLoginReusesAccountByProviderID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	existing := h.createSocialAccount(t, domain.ProviderGoogle, "G1", "a@x.com")

	// The provider now reports a different email for the same id.
	h.google.ident = provider.Identity{ProviderID: "G1", Email: "renamed@x.com", Name: "A"}

	res, err := h.login.AuthenticateWithSocial(ctx, "GOOGLE", "google-token", "captcha")
	require.NoError(t, err)
	require.True(t, res.Authenticated)
	require.Equal(t, "Google login successful", res.Message)

	claims, err := h.tokens.VerifyAccess(res.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, existing.ID, claims.Subject)
	require.Equal(t, "a@x.com", claims.Email)

	_, err = h.store.Accounts().GetAccountByEmail(ctx, domain.RoleUser, "renamed@x.com")
	require.Error(t, err, "no second account created")
}

func TestSocialLoginCreatesAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.facebook.ident = provider.Identity{ProviderID: "F42", Email: "New@X.com", Name: "Newbie"}

	res, err := h.login.AuthenticateWithSocial(ctx, "FACEBOOK", "fb-token", "captcha")
	require.NoError(t, err)
	require.True(t, res.Authenticated)
	require.Equal(t, "Facebook login successful", res.Message)

	acct, err := h.store.Accounts().GetAccountByProviderID(ctx, domain.ProviderFacebook, "F42")
	require.NoError(t, err)
	require.Equal(t, "new@x.com", acct.Email)
	require.Equal(t, domain.RoleUser, acct.Role)
	require.Equal(t, domain.ProviderFacebook, acct.AuthProvider)
	require.False(t, acct.Locked)
	require.NotNil(t, acct.PasswordHash, "social accounts get an unusable hash")

	_, err = h.login.AuthenticateWithEmail(ctx, "new@x.com", "", "captcha")
	require.Error(t, err)

	// Second login reuses it.
	_, err = h.login.AuthenticateWithSocial(ctx, "FACEBOOK", "fb-token", "captcha")
	require.NoError(t, err)
}

func TestSocialLoginRejectsEmailOfOtherProvider(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createAccount(t, domain.RoleUser, "shared@x.com", "pw")
	h.google.ident = provider.Identity{ProviderID: "G9", Email: "shared@x.com"}

	_, err := h.login.AuthenticateWithSocial(ctx, "GOOGLE", "google-token", "captcha")
	requireKind(t, err, KindInvalidCredentials)
	require.EqualError(t, err, msgDifferentProvider)

	_, err = h.store.Accounts().GetAccountByProviderID(ctx, domain.ProviderGoogle, "G9")
	require.Error(t, err, "no account written")
}

func TestSocialLoginFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("recaptcha before provider", func(t *testing.T) {
		h.recaptcha.valid = false
		defer func() { h.recaptcha.valid = true }()

		_, err := h.login.AuthenticateWithSocial(ctx, "GOOGLE", "google-token", "captcha")
		require.EqualError(t, err, msgRecaptchaFailed)
		require.Zero(t, h.google.calls)
	})

	t.Run("provider rejects token", func(t *testing.T) {
		h.google.err = fmt.Errorf("userinfo: %w", provider.ErrInvalidToken)
		defer func() { h.google.err = nil }()

		_, err := h.login.AuthenticateWithSocial(ctx, "GOOGLE", "google-token", "captcha")
		requireKind(t, err, KindInvalidCredentials)
		require.EqualError(t, err, "Invalid Google token")
	})

	t.Run("locked account", func(t *testing.T) {
		acct := h.createSocialAccount(t, domain.ProviderGoogle, "G-locked", "locked@x.com")
		for range 5 {
			_, _, err := h.store.Accounts().RecordLoginFailure(ctx, acct.Role, acct.ID, 5, h.clock.Now())
			require.NoError(t, err)
		}
		h.google.ident = provider.Identity{ProviderID: "G-locked", Email: "locked@x.com"}

		_, err := h.login.AuthenticateWithSocial(ctx, "GOOGLE", "google-token", "captcha")
		require.EqualError(t, err, msgAccountLocked)
	})
}

func TestSocialLoginWithMFA(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acct := h.createSocialAccount(t, domain.ProviderGoogle, "G-mfa", "mfa@x.com")
	secret, _ := h.enableMFA(t, acct)
	h.google.ident = provider.Identity{ProviderID: "G-mfa", Email: "mfa@x.com"}

	res, err := h.login.AuthenticateWithSocial(ctx, "GOOGLE", "google-token", "captcha")
	require.NoError(t, err)
	require.True(t, res.RequiresMFA)
	require.Nil(t, res.Tokens)

	out, err := h.login.VerifyMFA(ctx, res.MFASessionToken, h.code(t, secret, 0))
	require.NoError(t, err)
	require.NotNil(t, out.Tokens)
}
