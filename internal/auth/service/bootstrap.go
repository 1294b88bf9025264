package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapDisabled     = errors.New("bootstrap is disabled")
)

// BootstrapService creates the first SUPERADMIN. Every later superadmin
// has to be created out of band.
type BootstrapService struct {
	Store store.Store
	Token string // BOOTSTRAP_TOKEN; empty disables bootstrap
	Now   func() time.Time
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	n, err := s.Store.Accounts().CountAccounts(ctx, domain.RoleSuperadmin)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *BootstrapService) Bootstrap(ctx context.Context, token string, reg Registration) (domain.Account, error) {
	l := slogx.FromContext(ctx)

	if s.Token == "" {
		return domain.Account{}, ErrBootstrapDisabled
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return domain.Account{}, ErrBootstrapUnauthorized
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	var acct domain.Account
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.Accounts().CountAccounts(ctx, domain.RoleSuperadmin)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrBootstrapAlready
		}
		acct, err = createEmailAccount(ctx, tx.Accounts(), domain.RoleSuperadmin, reg, true, now)
		return err
	})
	if errors.Is(err, ErrBootstrapAlready) {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.Account{}, err
	}
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) {
			return domain.Account{}, err
		}
		return domain.Account{}, fmt.Errorf("bootstrap superadmin: %w", err)
	}

	l.Info("successfully bootstrapped system", slog.String("superadmin_id", acct.ID))
	return acct, nil
}
