package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/sqlite/gen"
)

type mfaSecretsRepo struct {
	q *gen.Queries
}

func (r *mfaSecretsRepo) GetMFASecret(ctx context.Context, accountID string, role domain.Role) (domain.MFASecret, error) {
	row, err := r.q.GetMfaSecret(ctx, accountID, string(role))
	if err != nil {
		return domain.MFASecret{}, mapNotFound(err)
	}
	return mapMFASecret(row), nil
}

func (r *mfaSecretsRepo) UpsertUnverified(ctx context.Context, s domain.MFASecret) error {
	n, err := r.q.UpsertUnverifiedMfaSecret(ctx, gen.UpsertUnverifiedMfaSecretParams{
		ID:          s.ID,
		AccountID:   s.AccountID,
		Role:        string(s.Role),
		Secret:      s.Secret,
		BackupCodes: s.BackupCodes,
		CreatedAt:   unix(s.CreatedAt),
	})
	if err != nil {
		return mapConflict(err)
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *mfaSecretsRepo) MarkVerified(ctx context.Context, accountID string, role domain.Role, at time.Time) error {
	return expectOne(r.q.MarkMfaSecretVerified(ctx, unix(at), accountID, string(role)))
}

func (r *mfaSecretsRepo) SwapBackupCodes(
	ctx context.Context,
	accountID string,
	role domain.Role,
	old, updated string,
	at time.Time,
) (bool, error) {
	n, err := r.q.SwapMfaBackupCodes(ctx, gen.SwapMfaBackupCodesParams{
		NewCodes:  updated,
		UpdatedAt: unix(at),
		AccountID: accountID,
		Role:      string(role),
		OldCodes:  old,
	})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *mfaSecretsRepo) DeleteMFASecret(ctx context.Context, accountID string, role domain.Role) error {
	return expectOne(r.q.DeleteMfaSecret(ctx, accountID, string(role)))
}
