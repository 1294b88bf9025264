package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/sqlite/gen"
)

type signingKeysRepo struct {
	q *gen.Queries
}

func (r *signingKeysRepo) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	err := r.q.CreateSigningKey(ctx, gen.CreateSigningKeyParams{
		ID:                  key.ID,
		Kid:                 key.Kid,
		Algorithm:           key.Algorithm,
		PrivateKeyEncrypted: key.PrivateKeyEncrypted,
		CreatedAt:           unix(key.CreatedAt),
		ExpiresAt:           unix(key.ExpiresAt),
	})
	return mapConflict(err)
}

func (r *signingKeysRepo) GetSigningKeyByKid(ctx context.Context, kid string) (domain.SigningKey, error) {
	row, err := r.q.GetSigningKeyByKid(ctx, kid)
	if err != nil {
		return domain.SigningKey{}, mapNotFound(err)
	}
	return mapSigningKey(row), nil
}

func (r *signingKeysRepo) ListActiveSigningKeys(ctx context.Context, now time.Time) ([]domain.SigningKey, error) {
	rows, err := r.q.ListActiveSigningKeys(ctx, unix(now))
	if err != nil {
		return nil, err
	}
	return mapSigningKeys(rows), nil
}

func (r *signingKeysRepo) ListVerifiableSigningKeys(ctx context.Context, now time.Time) ([]domain.SigningKey, error) {
	rows, err := r.q.ListVerifiableSigningKeys(ctx, unix(now))
	if err != nil {
		return nil, err
	}
	return mapSigningKeys(rows), nil
}

func (r *signingKeysRepo) RetireSigningKey(ctx context.Context, kid string, at, expiresAt time.Time) error {
	return expectOne(r.q.RetireSigningKey(ctx, unix(at), unix(expiresAt), kid))
}

func (r *signingKeysRepo) DeleteExpiredSigningKeys(ctx context.Context, now time.Time) error {
	return r.q.DeleteExpiredSigningKeys(ctx, unix(now))
}
