package gen

import (
	"context"
	"fmt"
)

// OneTimeTokenTable names a table with the OneTimeToken shape.
type OneTimeTokenTable string

const (
	PasswordResetTokens     OneTimeTokenTable = "password_reset_tokens"
	EmailVerificationTokens OneTimeTokenTable = "email_verification_tokens"
)

func (t OneTimeTokenTable) valid() error {
	switch t {
	case PasswordResetTokens, EmailVerificationTokens:
		return nil
	}
	return fmt.Errorf("gen: unknown token table %q", string(t))
}

const createOneTimeToken = `
INSERT INTO %s (token, account_id, role, expires_at, used, created_at)
VALUES (?, ?, ?, ?, 0, ?)`

type CreateOneTimeTokenParams struct {
	Token     string
	AccountID string
	Role      string
	ExpiresAt int64
	CreatedAt int64
}

func (q *Queries) CreateOneTimeToken(ctx context.Context, table OneTimeTokenTable, arg CreateOneTimeTokenParams) error {
	if err := table.valid(); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, fmt.Sprintf(createOneTimeToken, table),
		arg.Token, arg.AccountID, arg.Role, arg.ExpiresAt, arg.CreatedAt)
	return err
}

const getOneTimeToken = `
SELECT token, account_id, role, expires_at, used, created_at
FROM %s
WHERE token = ?`

func (q *Queries) GetOneTimeToken(ctx context.Context, table OneTimeTokenTable, token string) (OneTimeToken, error) {
	if err := table.valid(); err != nil {
		return OneTimeToken{}, err
	}
	var i OneTimeToken
	err := q.db.QueryRowContext(ctx, fmt.Sprintf(getOneTimeToken, table), token).Scan(
		&i.Token,
		&i.AccountID,
		&i.Role,
		&i.ExpiresAt,
		&i.Used,
		&i.CreatedAt,
	)
	return i, err
}

// consumeOneTimeToken flips used exactly once and only before expiry.
const consumeOneTimeToken = `
UPDATE %s SET used = 1
WHERE token = ? AND used = 0 AND expires_at > ?`

func (q *Queries) ConsumeOneTimeToken(ctx context.Context, table OneTimeTokenTable, token string, now int64) (int64, error) {
	if err := table.valid(); err != nil {
		return 0, err
	}
	return rowsAffected(q.db.ExecContext(ctx, fmt.Sprintf(consumeOneTimeToken, table), token, now))
}

const deleteStaleOneTimeTokens = `DELETE FROM %s WHERE expires_at <= ? OR used = 1`

func (q *Queries) DeleteStaleOneTimeTokens(ctx context.Context, table OneTimeTokenTable, now int64) error {
	if err := table.valid(); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, fmt.Sprintf(deleteStaleOneTimeTokens, table), now)
	return err
}
