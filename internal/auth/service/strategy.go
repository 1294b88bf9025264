package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/metrics"
	"github.com/aussiebroadwan/skygate/internal/auth/provider"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/cryptox"
	"github.com/aussiebroadwan/skygate/pkg/idx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

const msgMFARequired = "MFA code required"

// Credentials is the union of what the login variants accept. Each strategy
// reads the fields of its own shape and ignores the rest.
type Credentials struct {
	Email          string
	Password       string
	AccessToken    string
	RecaptchaToken string
}

// Strategy is one primary authentication variant.
type Strategy interface {
	Provider() domain.AuthProvider
	Authenticate(ctx context.Context, creds Credentials) (*domain.AuthResult, error)
}

// checkRecaptcha runs before any account or provider access.
func checkRecaptcha(ctx context.Context, v provider.RecaptchaVerifier, token string) error {
	ok, err := v.Verify(ctx, token)
	if err != nil {
		slogx.FromContext(ctx).Warn("recaptcha verification errored", slog.Any("error", err))
		return invalidCredentials(msgRecaptchaFailed)
	}
	if !ok {
		return invalidCredentials(msgRecaptchaFailed)
	}
	return nil
}

// loginFinisher takes a resolved account to its AuthResult: an MFA
// challenge when MFA is on, tokens otherwise.
type loginFinisher struct {
	tokens *TokenIssuer
	store  store.Store
	now    func() time.Time
}

func (f *loginFinisher) finish(ctx context.Context, acct domain.Account, p domain.AuthProvider, successMsg string, bookkept bool) (*domain.AuthResult, error) {
	l := slogx.FromContext(ctx)
	id := identityOf(acct)

	if acct.MFAEnabled {
		session, err := f.tokens.IssueMFASession(id)
		if err != nil {
			return nil, err
		}
		metrics.LoginAttempts.WithLabelValues(string(p), metrics.OutcomeMFARequired).Inc()
		l.Info("mfa challenge issued", slog.String("account_id", acct.ID))
		return &domain.AuthResult{
			RequiresMFA:     true,
			MFASessionToken: session,
			Message:         msgMFARequired,
			Email:           acct.Email,
		}, nil
	}

	pair, err := f.tokens.IssueTokens(ctx, id)
	if err != nil {
		return nil, err
	}
	if !bookkept {
		if err := f.store.Accounts().RecordLoginSuccess(ctx, acct.Role, acct.ID, f.now()); err != nil {
			l.Warn("login bookkeeping failed", slog.String("account_id", acct.ID), slog.Any("error", err))
		}
	}
	metrics.LoginAttempts.WithLabelValues(string(p), metrics.OutcomeSuccess).Inc()
	l.Info("login succeeded", slog.String("account_id", acct.ID), slog.String("provider", string(p)))
	return &domain.AuthResult{
		Authenticated: true,
		Tokens:        pair,
		Message:       successMsg,
		Email:         acct.Email,
	}, nil
}

// EmailStrategy authenticates with email and password.
type EmailStrategy struct {
	Recaptcha provider.RecaptchaVerifier
	Checker   *CredentialChecker
	finisher  loginFinisher
}

func NewEmailStrategy(recaptcha provider.RecaptchaVerifier, checker *CredentialChecker, tokens *TokenIssuer) *EmailStrategy {
	return &EmailStrategy{
		Recaptcha: recaptcha,
		Checker:   checker,
		finisher:  loginFinisher{tokens: tokens, store: checker.Store, now: checker.now},
	}
}

func (s *EmailStrategy) Provider() domain.AuthProvider { return domain.ProviderEmail }

func (s *EmailStrategy) Authenticate(ctx context.Context, creds Credentials) (*domain.AuthResult, error) {
	if err := checkRecaptcha(ctx, s.Recaptcha, creds.RecaptchaToken); err != nil {
		metrics.LoginAttempts.WithLabelValues(string(domain.ProviderEmail), metrics.OutcomeFailure).Inc()
		return nil, err
	}
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		metrics.LoginAttempts.WithLabelValues(string(domain.ProviderEmail), metrics.OutcomeFailure).Inc()
		return nil, invalidCredentials(msgInvalidEmailOrPassword)
	}

	acct, err := s.Checker.Check(ctx, creds.Email, creds.Password)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(string(domain.ProviderEmail), metrics.OutcomeFailure).Inc()
		return nil, err
	}
	return s.finisher.finish(ctx, acct, domain.ProviderEmail, "Login successful", false)
}

// SocialStrategy authenticates with a Google or Facebook access token. The
// provider id, not the email, is the identity key.
type SocialStrategy struct {
	tag       domain.AuthProvider
	label     string
	Recaptcha provider.RecaptchaVerifier
	Verifier  provider.IdentityVerifier
	Store     store.Store
	finisher  loginFinisher
}

func NewGoogleStrategy(recaptcha provider.RecaptchaVerifier, v provider.IdentityVerifier, st store.Store, tokens *TokenIssuer, now func() time.Time) *SocialStrategy {
	return newSocialStrategy(domain.ProviderGoogle, "Google", recaptcha, v, st, tokens, now)
}

func NewFacebookStrategy(recaptcha provider.RecaptchaVerifier, v provider.IdentityVerifier, st store.Store, tokens *TokenIssuer, now func() time.Time) *SocialStrategy {
	return newSocialStrategy(domain.ProviderFacebook, "Facebook", recaptcha, v, st, tokens, now)
}

func newSocialStrategy(tag domain.AuthProvider, label string, recaptcha provider.RecaptchaVerifier, v provider.IdentityVerifier, st store.Store, tokens *TokenIssuer, now func() time.Time) *SocialStrategy {
	if now == nil {
		now = time.Now
	}
	return &SocialStrategy{
		tag:       tag,
		label:     label,
		Recaptcha: recaptcha,
		Verifier:  v,
		Store:     st,
		finisher:  loginFinisher{tokens: tokens, store: st, now: now},
	}
}

func (s *SocialStrategy) Provider() domain.AuthProvider { return s.tag }

func (s *SocialStrategy) Authenticate(ctx context.Context, creds Credentials) (*domain.AuthResult, error) {
	res, err := s.authenticate(ctx, creds)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(string(s.tag), metrics.OutcomeFailure).Inc()
	}
	return res, err
}

func (s *SocialStrategy) authenticate(ctx context.Context, creds Credentials) (*domain.AuthResult, error) {
	l := slogx.FromContext(ctx)

	if err := checkRecaptcha(ctx, s.Recaptcha, creds.RecaptchaToken); err != nil {
		return nil, err
	}
	if strings.TrimSpace(creds.AccessToken) == "" {
		return nil, invalidCredentials("Invalid " + s.label + " token")
	}

	ident, err := s.Verifier.Identify(ctx, creds.AccessToken)
	if err != nil {
		if !errors.Is(err, provider.ErrInvalidToken) {
			l.Warn("identity provider call failed", slog.String("provider", string(s.tag)), slog.Any("error", err))
		}
		return nil, &AuthError{Kind: KindInvalidCredentials, Message: "Invalid " + s.label + " token", Err: err}
	}

	acct, err := s.Store.Accounts().GetAccountByProviderID(ctx, s.tag, ident.ProviderID)
	switch {
	case err == nil:
		if acct.Locked {
			return nil, invalidCredentials(msgAccountLocked)
		}
		return s.finisher.finish(ctx, acct, s.tag, s.label+" login successful", false)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("lookup social identity: %w", err)
	}

	acct, err = s.createAccount(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.finisher.finish(ctx, acct, s.tag, s.label+" login successful", true)
}

// createAccount links a first time social login to a new USER. An email
// already held by any account is never merged.
func (s *SocialStrategy) createAccount(ctx context.Context, ident provider.Identity) (domain.Account, error) {
	l := slogx.FromContext(ctx)
	email := domain.NormalizeEmail(ident.Email)
	if email == "" {
		return domain.Account{}, invalidCredentials(s.label + " account has no email address")
	}

	existing, err := findByEmail(ctx, s.Store.Accounts(), email)
	switch {
	case err == nil:
		l.Warn("social login for email held by another account",
			slog.String("provider", string(s.tag)),
			slog.String("existing_provider", string(existing.AuthProvider)),
		)
		if existing.AuthProvider != s.tag {
			return domain.Account{}, invalidCredentials(msgDifferentProvider)
		}
		return domain.Account{}, invalidCredentials(msgEmailRegistered)
	case !errors.Is(err, store.ErrNotFound):
		return domain.Account{}, err
	}

	hash, err := cryptox.UnusablePasswordHash()
	if err != nil {
		return domain.Account{}, fmt.Errorf("unusable password: %w", err)
	}

	now := s.finisher.now()
	providerID := ident.ProviderID
	acct := domain.Account{
		ID:            idx.New().String(),
		Role:          domain.RoleUser,
		Email:         email,
		Name:          ident.Name,
		PasswordHash:  &hash,
		AuthProvider:  s.tag,
		ProviderID:    &providerID,
		EmailVerified: true,
		LastLoginAt:   &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.Store.Accounts().CreateAccount(ctx, acct)
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.Account{}, invalidCredentials(msgEmailRegistered)
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("create social account: %w", err)
	}

	metrics.Registrations.WithLabelValues(string(domain.RoleUser), metrics.OutcomeSuccess).Inc()
	l.Info("social account created", slog.String("account_id", acct.ID), slog.String("provider", string(s.tag)))
	return acct, nil
}

// StrategySelector maps a provider to its strategy. It is built once at
// startup and only read afterwards.
type StrategySelector struct {
	strategies map[domain.AuthProvider]Strategy
}

func NewStrategySelector(strategies ...Strategy) *StrategySelector {
	m := make(map[domain.AuthProvider]Strategy, len(strategies))
	for _, s := range strategies {
		m[s.Provider()] = s
	}
	return &StrategySelector{strategies: m}
}

// Select fails with Unauthorized for anything outside the configured set.
func (s *StrategySelector) Select(name string) (Strategy, error) {
	p, err := domain.ParseAuthProvider(name)
	if err != nil {
		return nil, unauthorized(msgUnsupportedProvider)
	}
	st, ok := s.strategies[p]
	if !ok {
		return nil, unauthorized(msgUnsupportedProvider)
	}
	return st, nil
}
