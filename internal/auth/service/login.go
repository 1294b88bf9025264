package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/metrics"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

const msgMFASuccess = "Authentication successful"

// LoginOrchestrator runs the two phase login: strategy first, then either
// tokens or an MFA challenge that VerifyMFA completes.
type LoginOrchestrator struct {
	Selector *StrategySelector
	MFA      *MFAManager
	Tokens   *TokenIssuer
	Store    store.Store
	Now      func() time.Time
}

func (o *LoginOrchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// AuthenticateWithEmail returns the strategy's result verbatim.
func (o *LoginOrchestrator) AuthenticateWithEmail(ctx context.Context, email, password, recaptchaToken string) (*domain.AuthResult, error) {
	return o.authenticate(ctx, string(domain.ProviderEmail), Credentials{
		Email:          email,
		Password:       password,
		RecaptchaToken: recaptchaToken,
	})
}

// AuthenticateWithSocial logs in through GOOGLE or FACEBOOK.
func (o *LoginOrchestrator) AuthenticateWithSocial(ctx context.Context, providerName, accessToken, recaptchaToken string) (*domain.AuthResult, error) {
	if p, err := domain.ParseAuthProvider(providerName); err == nil && p == domain.ProviderEmail {
		return nil, unauthorized(msgUnsupportedProvider)
	}
	return o.authenticate(ctx, providerName, Credentials{
		AccessToken:    accessToken,
		RecaptchaToken: recaptchaToken,
	})
}

func (o *LoginOrchestrator) authenticate(ctx context.Context, providerName string, creds Credentials) (*domain.AuthResult, error) {
	st, err := o.Selector.Select(providerName)
	if err != nil {
		return nil, err
	}
	return st.Authenticate(ctx, creds)
}

// VerifyMFA exchanges an MFA session token and a code for tokens. A wrong
// code leaves the session usable until it expires or MaxMFAAttempts is
// reached. Anything unexpected is reported as a generic invalid-credentials
// failure.
func (o *LoginOrchestrator) VerifyMFA(ctx context.Context, sessionToken, code string) (*domain.AuthResult, error) {
	l := slogx.FromContext(ctx)

	res, err := o.verifyMFA(ctx, sessionToken, code)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, ErrInvalidCredentials) {
		return nil, err
	}
	l.Error("mfa verification failed", slog.Any("error", err))
	return nil, &AuthError{Kind: KindInvalidCredentials, Message: msgMFAVerificationFailed, Err: err}
}

func (o *LoginOrchestrator) verifyMFA(ctx context.Context, sessionToken, code string) (*domain.AuthResult, error) {
	l := slogx.FromContext(ctx)

	claims, err := o.Tokens.ParseMFASession(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, invalidCredentials(msgInvalidMFASession)
	}

	ok, err := o.MFA.ValidateMFACode(ctx, claims.Subject, role, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := o.Tokens.RecordMFAFailure(ctx, claims); err != nil {
			l.Warn("mfa attempt counter failed", slog.Any("error", err))
		}
		l.Warn("wrong mfa code at login", slog.String("account_id", claims.Subject))
		return nil, invalidCredentials(msgInvalidMFACode)
	}

	acct, err := o.Store.Accounts().GetAccountByID(ctx, role, claims.Subject)
	if err != nil {
		return nil, err
	}
	if acct.Locked {
		return nil, invalidCredentials(msgAccountLocked)
	}

	pair, err := o.Tokens.IssueTokens(ctx, identityOf(acct))
	if err != nil {
		return nil, err
	}
	if err := o.Tokens.RevokeClaims(ctx, claims); err != nil {
		l.Warn("mfa session revoke failed", slog.Any("error", err))
	}
	if err := o.Store.Accounts().RecordLoginSuccess(ctx, acct.Role, acct.ID, o.now()); err != nil {
		l.Warn("login bookkeeping failed", slog.String("account_id", acct.ID), slog.Any("error", err))
	}

	metrics.LoginAttempts.WithLabelValues(string(acct.AuthProvider), metrics.OutcomeSuccess).Inc()
	l.Info("mfa login completed", slog.String("account_id", acct.ID))
	return &domain.AuthResult{
		Authenticated: true,
		Tokens:        pair,
		Message:       msgMFASuccess,
		Email:         acct.Email,
	}, nil
}

// Logout revokes token on a best effort basis and never fails.
func (o *LoginOrchestrator) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := o.Tokens.Revoke(ctx, token); err != nil {
		metrics.RevocationErrors.Inc()
		slogx.FromContext(ctx).Warn("logout revocation failed", slog.Any("error", err))
	}
}

func (o *LoginOrchestrator) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	return o.Tokens.Refresh(ctx, refreshToken)
}
