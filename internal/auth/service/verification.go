package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

const (
	defaultVerifyTokenTTL = 24 * time.Hour

	MsgEmailVerified      = "Email verified successfully"
	MsgVerificationResent = "If an unverified account exists with this email, a verification link has been sent."
)

// EmailVerificationService mails and consumes email verification links.
// Only USER accounts go through verification.
type EmailVerificationService struct {
	Store     store.Store
	Mailer    Mailer
	TokenTTL  time.Duration
	PublicURL string
	Now       func() time.Time
}

func (s *EmailVerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue creates a verification token for acct and mails the link.
func (s *EmailVerificationService) Issue(ctx context.Context, acct domain.Account) error {
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultVerifyTokenTTL
	}
	now := s.now()
	tok := domain.OneTimeToken{
		Token:     uuid.NewString(),
		AccountID: acct.ID,
		Role:      acct.Role,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.Store.VerificationTokens().CreateToken(ctx, tok); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	sendMail(ctx, s.Mailer, Message{
		To:      acct.Email,
		Subject: "Verify your email",
		Body:    "Confirm your email address:\n\n" + linkWithToken(s.PublicURL, "/api/email/verify", tok.Token),
	})
	return nil
}

// Verify consumes token and marks its account verified.
func (s *EmailVerificationService) Verify(ctx context.Context, token string) error {
	now := s.now()
	tok, err := s.Store.VerificationTokens().GetToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return invalidToken(msgInvalidVerifyToken)
	}
	if err != nil {
		return fmt.Errorf("load verification token: %w", err)
	}
	if !tok.Usable(now) {
		return invalidToken(msgInvalidVerifyToken)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := tx.VerificationTokens().ConsumeToken(ctx, token, now)
		if err != nil {
			return err
		}
		if !ok {
			return invalidToken(msgInvalidVerifyToken)
		}
		return tx.Accounts().MarkEmailVerified(ctx, tok.Role, tok.AccountID, now)
	})
	if errors.Is(err, store.ErrNotFound) {
		return userNotFound(msgUserNotFound)
	}
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("email verified", slog.String("account_id", tok.AccountID))
	return nil
}

// Resend mails a new link to an unverified USER. The caller sees the same
// answer whether or not anything was sent.
func (s *EmailVerificationService) Resend(ctx context.Context, email string) {
	l := slogx.FromContext(ctx)

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, domain.RoleUser, domain.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Error("verification resend lookup failed", slog.Any("error", err))
		}
		return
	}
	if acct.EmailVerified {
		return
	}
	if err := s.Issue(ctx, acct); err != nil {
		l.Error("verification resend failed", slog.String("account_id", acct.ID), slog.Any("error", err))
	}
}
