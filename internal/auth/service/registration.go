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

// SelectRegistrationRole accepts the roles that can be created through the
// registration endpoints. SUPERADMIN only comes from bootstrap.
func SelectRegistrationRole(name string) (domain.Role, error) {
	r, err := domain.ParseRole(name)
	if err != nil {
		return "", unauthorized(msgUnknownRole)
	}
	switch r {
	case domain.RoleUser, domain.RoleAdmin:
		return r, nil
	}
	return "", unauthorized("Registration is not allowed for role " + string(r))
}

// Registration is a new email account.
type Registration struct {
	Email    string
	Password string
	Name     string
}

// RegistrationService creates email accounts.
type RegistrationService struct {
	Store        store.Store
	Recaptcha    provider.RecaptchaVerifier
	Verification *EmailVerificationService
	Now          func() time.Time
}

func (s *RegistrationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RegisterUser is the public sign-up path. The account starts unverified
// and a verification link is mailed.
func (s *RegistrationService) RegisterUser(ctx context.Context, reg Registration, recaptchaToken string) (domain.Account, error) {
	if err := checkRecaptcha(ctx, s.Recaptcha, recaptchaToken); err != nil {
		return domain.Account{}, err
	}
	acct, err := s.Register(ctx, string(domain.RoleUser), reg)
	if err != nil {
		return domain.Account{}, err
	}
	if s.Verification != nil {
		if err := s.Verification.Issue(ctx, acct); err != nil {
			slogx.FromContext(ctx).Error("verification email not issued", slog.String("account_id", acct.ID), slog.Any("error", err))
		}
	}
	return acct, nil
}

// RegisterAdmin is called by a SUPERADMIN. Admins start verified.
func (s *RegistrationService) RegisterAdmin(ctx context.Context, reg Registration) (domain.Account, error) {
	return s.Register(ctx, string(domain.RoleAdmin), reg)
}

// Register creates an account of roleName after the role selector allows it.
func (s *RegistrationService) Register(ctx context.Context, roleName string, reg Registration) (domain.Account, error) {
	role, err := SelectRegistrationRole(roleName)
	if err != nil {
		metrics.Registrations.WithLabelValues(strings.ToUpper(roleName), metrics.OutcomeFailure).Inc()
		return domain.Account{}, err
	}
	acct, err := createEmailAccount(ctx, s.Store.Accounts(), role, reg, role != domain.RoleUser, s.now())
	if err != nil {
		metrics.Registrations.WithLabelValues(string(role), metrics.OutcomeFailure).Inc()
		return domain.Account{}, err
	}
	metrics.Registrations.WithLabelValues(string(role), metrics.OutcomeSuccess).Inc()
	slogx.FromContext(ctx).Info("account registered", slog.String("account_id", acct.ID), slog.String("role", string(role)))
	return acct, nil
}

func createEmailAccount(ctx context.Context, accounts store.Accounts, role domain.Role, reg Registration, verified bool, now time.Time) (domain.Account, error) {
	email := domain.NormalizeEmail(reg.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Account{}, illegalArgument("A valid email is required")
	}
	if reg.Password == "" {
		return domain.Account{}, illegalArgument("Password is required")
	}

	hash, err := cryptox.HashPassword(reg.Password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	acct := domain.Account{
		ID:            idx.New().String(),
		Role:          role,
		Email:         email,
		Name:          strings.TrimSpace(reg.Name),
		PasswordHash:  &hash,
		AuthProvider:  domain.ProviderEmail,
		EmailVerified: verified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = accounts.CreateAccount(ctx, acct)
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.Account{}, illegalArgument(msgEmailRegistered)
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}
	return acct, nil
}
