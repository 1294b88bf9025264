package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/sqlite/gen"
)

type refreshTokensRepo struct {
	q *gen.Queries
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	err := r.q.CreateRefreshToken(ctx, gen.CreateRefreshTokenParams{
		ID:        t.ID,
		Jti:       t.JTI,
		AccountID: t.AccountID,
		Role:      string(t.Role),
		ExpiresAt: unix(t.ExpiresAt),
		CreatedAt: unix(t.CreatedAt),
	})
	return mapConflict(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByJTI(ctx context.Context, jti string) (domain.RefreshToken, error) {
	row, err := r.q.GetRefreshTokenByJti(ctx, jti)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return mapRefreshToken(row), nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, jti string, at time.Time) (bool, error) {
	n, err := r.q.RevokeRefreshToken(ctx, unix(at), jti)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *refreshTokensRepo) RevokeAccountRefreshTokens(
	ctx context.Context,
	accountID string,
	role domain.Role,
	at time.Time,
) error {
	_, err := r.q.RevokeAccountRefreshTokens(ctx, unix(at), accountID, string(role))
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error {
	return r.q.DeleteExpiredRefreshTokens(ctx, unix(now))
}
