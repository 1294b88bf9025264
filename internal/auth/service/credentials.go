package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/metrics"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/cryptox"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

const defaultMaxFailedLogins = 5

var dummyHash = sync.OnceValue(func() string {
	h, _ := cryptox.UnusablePasswordHash()
	return h
})

// CredentialChecker resolves an email and password to an account. It owns
// the lockout counter and the email verification gate.
type CredentialChecker struct {
	Store                    store.Store
	MaxFailedLogins          int
	RequireEmailVerification bool
	Now                      func() time.Time
}

func (c *CredentialChecker) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// findByEmail searches the kinds in domain.LookupOrder; first match wins.
func findByEmail(ctx context.Context, accounts store.Accounts, email string) (domain.Account, error) {
	for _, role := range domain.LookupOrder {
		a, err := accounts.GetAccountByEmail(ctx, role, email)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, fmt.Errorf("lookup %s: %w", role, err)
		}
	}
	return domain.Account{}, store.ErrNotFound
}

// Check returns the account whose password matches. Failures carry the
// message the caller should see.
func (c *CredentialChecker) Check(ctx context.Context, email, password string) (domain.Account, error) {
	l := slogx.FromContext(ctx)
	email = domain.NormalizeEmail(email)

	acct, err := findByEmail(ctx, c.Store.Accounts(), email)
	if errors.Is(err, store.ErrNotFound) {
		// Burn comparable time so unknown emails are not obviously faster.
		_ = cryptox.VerifyPassword(password, dummyHash())
		return domain.Account{}, invalidCredentials(msgInvalidEmailOrPassword)
	}
	if err != nil {
		return domain.Account{}, err
	}

	if acct.Locked {
		l.Warn("login on locked account", slog.String("account_id", acct.ID))
		return domain.Account{}, invalidCredentials(msgAccountLocked)
	}

	if acct.PasswordHash == nil || cryptox.VerifyPassword(password, *acct.PasswordHash) != nil {
		return domain.Account{}, c.recordFailure(ctx, acct)
	}

	if acct.Role == domain.RoleUser && c.RequireEmailVerification && !acct.EmailVerified {
		return domain.Account{}, invalidCredentials(msgEmailNotVerified)
	}
	return acct, nil
}

func (c *CredentialChecker) recordFailure(ctx context.Context, acct domain.Account) error {
	lockAfter := c.MaxFailedLogins
	if lockAfter <= 0 {
		lockAfter = defaultMaxFailedLogins
	}

	attempts, locked, err := c.Store.Accounts().RecordLoginFailure(ctx, acct.Role, acct.ID, lockAfter, c.now())
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}

	l := slogx.FromContext(ctx)
	if locked {
		metrics.AccountLockouts.Inc()
		l.Warn("account locked", slog.String("account_id", acct.ID), slog.Int("attempts", attempts))
		return invalidCredentials(msgAccountLocked)
	}
	l.Warn("wrong password", slog.String("account_id", acct.ID), slog.Int("attempts", attempts))
	return invalidCredentials(msgInvalidEmailOrPassword)
}
