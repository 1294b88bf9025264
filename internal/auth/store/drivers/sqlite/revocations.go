package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/sqlite/gen"
)

type revocationsRepo struct {
	q *gen.Queries
}

func (r *revocationsRepo) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.q.RevokeToken(ctx, jti, unix(expiresAt))
}

func (r *revocationsRepo) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return r.q.IsTokenRevoked(ctx, jti)
}

func (r *revocationsRepo) IncrementMFAAttempts(ctx context.Context, jti string, expiresAt time.Time) (int, error) {
	n, err := r.q.IncrementMfaSessionAttempts(ctx, jti, unix(expiresAt))
	return int(n), err
}

func (r *revocationsRepo) DeleteExpiredRevocations(ctx context.Context, now time.Time) error {
	return r.q.DeleteExpiredRevocations(ctx, unix(now))
}
