package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/metrics"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/cryptox"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

const (
	defaultResetTokenTTL = time.Hour

	MsgResetRequested = "If an account exists with this email, a reset link has been sent."
	MsgResetConfirmed = "Password has been reset successfully. You can now login."
)

// PasswordResetManager issues single use reset links and replaces
// passwords. Requests never reveal whether an email is registered.
type PasswordResetManager struct {
	Store     store.Store
	Mailer    Mailer
	TokenTTL  time.Duration
	PublicURL string
	Now       func() time.Time
}

func (m *PasswordResetManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// RequestPasswordReset always succeeds from the caller's point of view.
func (m *PasswordResetManager) RequestPasswordReset(ctx context.Context, email string) {
	l := slogx.FromContext(ctx)
	email = domain.NormalizeEmail(email)

	acct, err := findByEmail(ctx, m.Store.Accounts(), email)
	if errors.Is(err, store.ErrNotFound) {
		metrics.PasswordResets.WithLabelValues("request", "unknown_email").Inc()
		l.Warn("password reset requested for unknown email")
		return
	}
	if err != nil {
		metrics.PasswordResets.WithLabelValues("request", metrics.OutcomeFailure).Inc()
		l.Error("password reset lookup failed", slog.Any("error", err))
		return
	}

	ttl := m.TokenTTL
	if ttl <= 0 {
		ttl = defaultResetTokenTTL
	}
	now := m.now()
	tok := domain.OneTimeToken{
		Token:     uuid.NewString(),
		AccountID: acct.ID,
		Role:      acct.Role,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := m.Store.PasswordResetTokens().CreateToken(ctx, tok); err != nil {
		metrics.PasswordResets.WithLabelValues("request", metrics.OutcomeFailure).Inc()
		l.Error("password reset token not stored", slog.String("account_id", acct.ID), slog.Any("error", err))
		return
	}

	sendMail(ctx, m.Mailer, Message{
		To:      acct.Email,
		Subject: "Reset your password",
		Body: "Use the link below to choose a new password. It expires in " + ttl.String() + ".\n\n" +
			linkWithToken(m.PublicURL, "/reset-password", tok.Token),
	})
	metrics.PasswordResets.WithLabelValues("request", metrics.OutcomeSuccess).Inc()
	l.Info("password reset issued", slog.String("account_id", acct.ID))
}

// ConfirmPasswordReset replaces the password behind a valid token. The
// token is consumed in the same transaction as the password write, so two
// concurrent confirms cannot both succeed.
func (m *PasswordResetManager) ConfirmPasswordReset(ctx context.Context, token, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return illegalArgument(msgPasswordsDoNotMatch)
	}
	if newPassword == "" {
		return illegalArgument("Password is required")
	}

	now := m.now()
	tok, err := m.Store.PasswordResetTokens().GetToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return m.reject(invalidToken(msgInvalidResetToken))
	}
	if err != nil {
		return fmt.Errorf("load reset token: %w", err)
	}
	if !tok.Usable(now) {
		return m.reject(invalidToken(msgInvalidResetToken))
	}

	if _, err := m.Store.Accounts().GetAccountByID(ctx, tok.Role, tok.AccountID); errors.Is(err, store.ErrNotFound) {
		return m.reject(userNotFound(msgUserNotFound))
	} else if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = m.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := tx.PasswordResetTokens().ConsumeToken(ctx, token, now)
		if err != nil {
			return err
		}
		if !ok {
			return invalidToken(msgInvalidResetToken)
		}
		if err := tx.Accounts().SetPassword(ctx, tok.Role, tok.AccountID, hash, now); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeAccountRefreshTokens(ctx, tok.AccountID, tok.Role, now)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return m.reject(err)
		}
		if errors.Is(err, store.ErrNotFound) {
			return m.reject(userNotFound(msgUserNotFound))
		}
		return fmt.Errorf("reset password: %w", err)
	}

	metrics.PasswordResets.WithLabelValues("confirm", metrics.OutcomeSuccess).Inc()
	slogx.FromContext(ctx).Info("password reset completed", slog.String("account_id", tok.AccountID))
	return nil
}

func (m *PasswordResetManager) reject(err error) error {
	metrics.PasswordResets.WithLabelValues("confirm", metrics.OutcomeFailure).Inc()
	return err
}

func linkWithToken(base, path, token string) string {
	return base + path + "?token=" + url.QueryEscape(token)
}
