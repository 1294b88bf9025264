package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/sqlite/gen"
)

// oneTimeTokensRepo serves both token tables; they share a row shape.
type oneTimeTokensRepo struct {
	q     *gen.Queries
	table gen.OneTimeTokenTable
}

func (r *oneTimeTokensRepo) CreateToken(ctx context.Context, t domain.OneTimeToken) error {
	err := r.q.CreateOneTimeToken(ctx, r.table, gen.CreateOneTimeTokenParams{
		Token:     t.Token,
		AccountID: t.AccountID,
		Role:      string(t.Role),
		ExpiresAt: unix(t.ExpiresAt),
		CreatedAt: unix(t.CreatedAt),
	})
	return mapConflict(err)
}

func (r *oneTimeTokensRepo) GetToken(ctx context.Context, token string) (domain.OneTimeToken, error) {
	row, err := r.q.GetOneTimeToken(ctx, r.table, token)
	if err != nil {
		return domain.OneTimeToken{}, mapNotFound(err)
	}
	return mapOneTimeToken(row), nil
}

func (r *oneTimeTokensRepo) ConsumeToken(ctx context.Context, token string, now time.Time) (bool, error) {
	n, err := r.q.ConsumeOneTimeToken(ctx, r.table, token, unix(now))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *oneTimeTokensRepo) DeleteStaleTokens(ctx context.Context, now time.Time) error {
	return r.q.DeleteStaleOneTimeTokens(ctx, r.table, unix(now))
}
