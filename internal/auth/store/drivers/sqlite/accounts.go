package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/sqlite/gen"
)

type accountsRepo struct {
	q *gen.Queries
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, role domain.Role, id string) (domain.Account, error) {
	row, err := r.q.GetAccountByID(ctx, string(role), id)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, role domain.Role, email string) (domain.Account, error) {
	row, err := r.q.GetAccountByEmail(ctx, string(role), email)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) GetAccountByProviderID(
	ctx context.Context,
	provider domain.AuthProvider,
	providerID string,
) (domain.Account, error) {
	row, err := r.q.GetAccountByProviderID(ctx, string(provider), providerID)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	err := r.q.CreateAccount(ctx, gen.CreateAccountParams{
		ID:            a.ID,
		Role:          string(a.Role),
		Email:         a.Email,
		Name:          a.Name,
		PasswordHash:  mapOptionalString(a.PasswordHash),
		AuthProvider:  string(a.AuthProvider),
		ProviderID:    mapOptionalString(a.ProviderID),
		EmailVerified: a.EmailVerified,
		AccountLocked: a.Locked,
		CreatedAt:     unix(a.CreatedAt),
	})
	return mapConflict(err)
}

func (r *accountsRepo) SetPassword(ctx context.Context, role domain.Role, id, hash string, at time.Time) error {
	return expectOne(r.q.SetAccountPassword(ctx, gen.SetAccountPasswordParams{
		PasswordHash: hash,
		UpdatedAt:    unix(at),
		Role:         string(role),
		ID:           id,
	}))
}

func (r *accountsRepo) RecordLoginSuccess(ctx context.Context, role domain.Role, id string, at time.Time) error {
	return expectOne(r.q.RecordLoginSuccess(ctx, unix(at), string(role), id))
}

func (r *accountsRepo) RecordLoginFailure(
	ctx context.Context,
	role domain.Role,
	id string,
	lockAfter int,
	at time.Time,
) (int, bool, error) {
	row, err := r.q.RecordLoginFailure(ctx, int64(lockAfter), unix(at), string(role), id)
	if err != nil {
		return 0, false, mapNotFound(err)
	}
	return int(row.FailedLoginAttempts), row.AccountLocked, nil
}

func (r *accountsRepo) MarkEmailVerified(ctx context.Context, role domain.Role, id string, at time.Time) error {
	return expectOne(r.q.MarkAccountEmailVerified(ctx, unix(at), string(role), id))
}

func (r *accountsRepo) CountAccounts(ctx context.Context, role domain.Role) (int, error) {
	n, err := r.q.CountAccountsByRole(ctx, string(role))
	return int(n), err
}
