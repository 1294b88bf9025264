package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
)

// resetToken pulls the token out of the last mailed reset link.
func (h *harness) resetToken(t *testing.T) string {
	t.Helper()

	h.mailer.mu.Lock()
	defer h.mailer.mu.Unlock()
	require.NotEmpty(t, h.mailer.sent)

	body := h.mailer.sent[len(h.mailer.sent)-1].Body
	i := strings.Index(body, "http")
	require.GreaterOrEqual(t, i, 0)
	u, err := url.Parse(strings.TrimSpace(body[i:]))
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestRequestPasswordResetDoesNotEnumerate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acct := h.createAccount(t, domain.RoleAdmin, "admin@example.com", "pw")

	h.reset.RequestPasswordReset(ctx, "nobody@example.com")
	require.Zero(t, h.mailer.count())

	h.reset.RequestPasswordReset(ctx, "ADMIN@example.com")
	require.Equal(t, 1, h.mailer.count())
	require.Equal(t, acct.Email, h.mailer.sent[0].To)

	tok, err := h.store.PasswordResetTokens().GetToken(ctx, h.resetToken(t))
	require.NoError(t, err)
	require.Equal(t, acct.ID, tok.AccountID)
	require.Equal(t, domain.RoleAdmin, tok.Role)
	require.False(t, tok.Used)
	require.True(t, tok.ExpiresAt.After(h.clock.Now()))
}

func TestConfirmPasswordReset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acct := h.createAccount(t, domain.RoleUser, "user@example.com", "old-pw")

	// Lock the account; a reset unlocks it.
	for range h.checker.MaxFailedLogins {
		_, _ = h.login.AuthenticateWithEmail(ctx, acct.Email, "wrong", "captcha")
	}

	h.reset.RequestPasswordReset(ctx, acct.Email)
	token := h.resetToken(t)

	t.Run("mismatch is rejected before the token is read", func(t *testing.T) {
		err := h.reset.ConfirmPasswordReset(ctx, "does-not-exist", "a", "b")
		requireKind(t, err, KindIllegalArgument)
		require.EqualError(t, err, msgPasswordsDoNotMatch)
	})

	t.Run("unknown token", func(t *testing.T) {
		err := h.reset.ConfirmPasswordReset(ctx, "does-not-exist", "new-pw", "new-pw")
		requireKind(t, err, KindInvalidToken)
	})

	t.Run("valid token", func(t *testing.T) {
		require.NoError(t, h.reset.ConfirmPasswordReset(ctx, token, "new-pw", "new-pw"))

		res, err := h.login.AuthenticateWithEmail(ctx, acct.Email, "new-pw", "captcha")
		require.NoError(t, err)
		require.True(t, res.Authenticated)

		_, err = h.login.AuthenticateWithEmail(ctx, acct.Email, "old-pw", "captcha")
		require.EqualError(t, err, msgInvalidEmailOrPassword)
	})

	t.Run("token is single use", func(t *testing.T) {
		err := h.reset.ConfirmPasswordReset(ctx, token, "other-pw", "other-pw")
		requireKind(t, err, KindInvalidToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestConfirmPasswordResetExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acct := h.createAccount(t, domain.RoleUser, "late@example.com", "pw")

	h.reset.RequestPasswordReset(ctx, acct.Email)
	token := h.resetToken(t)

	h.clock.Advance(defaultResetTokenTTL + time.Second)
	err := h.reset.ConfirmPasswordReset(ctx, token, "new-pw", "new-pw")
	requireKind(t, err, KindInvalidToken)
}

// missingAccountStore hides every account from id lookups.
type missingAccountStore struct {
	store.Store
	resetTokenCalls int
}

type missingAccounts struct{ store.Accounts }

func (missingAccounts) GetAccountByID(context.Context, domain.Role, string) (domain.Account, error) {
	return domain.Account{}, store.ErrNotFound
}

func (s *missingAccountStore) Accounts() store.Accounts {
	return missingAccounts{s.Store.Accounts()}
}

func (s *missingAccountStore) PasswordResetTokens() store.OneTimeTokens {
	s.resetTokenCalls++
	return s.Store.PasswordResetTokens()
}

func TestConfirmPasswordResetMissingAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acct := h.createAccount(t, domain.RoleUser, "gone@example.com", "pw")

	h.reset.RequestPasswordReset(ctx, acct.Email)
	token := h.resetToken(t)

	spy := &missingAccountStore{Store: h.store}
	h.reset.Store = spy

	err := h.reset.ConfirmPasswordReset(ctx, token, "new-pw", "other")
	requireKind(t, err, KindIllegalArgument)
	require.Zero(t, spy.resetTokenCalls, "mismatch never reaches the token store")

	err = h.reset.ConfirmPasswordReset(ctx, token, "new-pw", "new-pw")
	requireKind(t, err, KindUserNotFound)

	tok, err := h.store.PasswordResetTokens().GetToken(ctx, token)
	require.NoError(t, err)
	require.False(t, tok.Used)
}
