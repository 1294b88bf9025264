package gen

import "context"

const revokeToken = `
INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
ON CONFLICT (jti) DO UPDATE SET expires_at = MAX(revoked_tokens.expires_at, excluded.expires_at)`

func (q *Queries) RevokeToken(ctx context.Context, jti string, expiresAt int64) error {
	_, err := q.db.ExecContext(ctx, revokeToken, jti, expiresAt)
	return err
}

const isTokenRevoked = `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`

func (q *Queries) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := q.db.QueryRowContext(ctx, isTokenRevoked, jti).Scan(&revoked)
	return revoked, err
}

const incrementMfaSessionAttempts = `
INSERT INTO mfa_session_attempts (jti, attempts, expires_at) VALUES (?, 1, ?)
ON CONFLICT (jti) DO UPDATE SET attempts = mfa_session_attempts.attempts + 1
RETURNING attempts`

func (q *Queries) IncrementMfaSessionAttempts(ctx context.Context, jti string, expiresAt int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, incrementMfaSessionAttempts, jti, expiresAt).Scan(&n)
	return n, err
}

const deleteExpiredRevocations = `DELETE FROM revoked_tokens WHERE expires_at <= ?`

const deleteExpiredMfaSessionAttempts = `DELETE FROM mfa_session_attempts WHERE expires_at <= ?`

func (q *Queries) DeleteExpiredRevocations(ctx context.Context, now int64) error {
	if _, err := q.db.ExecContext(ctx, deleteExpiredRevocations, now); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, deleteExpiredMfaSessionAttempts, now)
	return err
}
