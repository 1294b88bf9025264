package gen

import "context"

const createRefreshToken = `
INSERT INTO refresh_tokens (id, jti, account_id, role, expires_at, revoked, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, 0, ?, ?)`

type CreateRefreshTokenParams struct {
	ID        string
	Jti       string
	AccountID string
	Role      string
	ExpiresAt int64
	CreatedAt int64
}

func (q *Queries) CreateRefreshToken(ctx context.Context, arg CreateRefreshTokenParams) error {
	_, err := q.db.ExecContext(ctx, createRefreshToken,
		arg.ID, arg.Jti, arg.AccountID, arg.Role, arg.ExpiresAt, arg.CreatedAt, arg.CreatedAt)
	return err
}

const getRefreshTokenByJti = `
SELECT id, jti, account_id, role, expires_at, revoked, created_at, updated_at
FROM refresh_tokens
WHERE jti = ?`

func (q *Queries) GetRefreshTokenByJti(ctx context.Context, jti string) (RefreshToken, error) {
	var i RefreshToken
	err := q.db.QueryRowContext(ctx, getRefreshTokenByJti, jti).Scan(
		&i.ID,
		&i.Jti,
		&i.AccountID,
		&i.Role,
		&i.ExpiresAt,
		&i.Revoked,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const revokeRefreshToken = `
UPDATE refresh_tokens SET revoked = 1, updated_at = ?
WHERE jti = ? AND revoked = 0`

func (q *Queries) RevokeRefreshToken(ctx context.Context, at int64, jti string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, revokeRefreshToken, at, jti))
}

const revokeAccountRefreshTokens = `
UPDATE refresh_tokens SET revoked = 1, updated_at = ?
WHERE account_id = ? AND role = ? AND revoked = 0`

func (q *Queries) RevokeAccountRefreshTokens(ctx context.Context, at int64, accountID, role string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, revokeAccountRefreshTokens, at, accountID, role))
}

const deleteExpiredRefreshTokens = `DELETE FROM refresh_tokens WHERE expires_at <= ?`

func (q *Queries) DeleteExpiredRefreshTokens(ctx context.Context, now int64) error {
	_, err := q.db.ExecContext(ctx, deleteExpiredRefreshTokens, now)
	return err
}
