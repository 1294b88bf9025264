package gen

import (
	"context"
	"database/sql"
)

const signingKeyColumns = `id, kid, algorithm, private_key_encrypted, created_at, retired_at, expires_at`

func scanSigningKeys(rows *sql.Rows, err error) ([]SigningKey, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SigningKey
	for rows.Next() {
		var i SigningKey
		if err := rows.Scan(
			&i.ID,
			&i.Kid,
			&i.Algorithm,
			&i.PrivateKeyEncrypted,
			&i.CreatedAt,
			&i.RetiredAt,
			&i.ExpiresAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createSigningKey = `
INSERT INTO signing_keys (id, kid, algorithm, private_key_encrypted, created_at, retired_at, expires_at)
VALUES (?, ?, ?, ?, ?, NULL, ?)`

type CreateSigningKeyParams struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           int64
	ExpiresAt           int64
}

func (q *Queries) CreateSigningKey(ctx context.Context, arg CreateSigningKeyParams) error {
	_, err := q.db.ExecContext(ctx, createSigningKey,
		arg.ID, arg.Kid, arg.Algorithm, arg.PrivateKeyEncrypted, arg.CreatedAt, arg.ExpiresAt)
	return err
}

const getSigningKeyByKid = `SELECT ` + signingKeyColumns + ` FROM signing_keys WHERE kid = ?`

func (q *Queries) GetSigningKeyByKid(ctx context.Context, kid string) (SigningKey, error) {
	var i SigningKey
	err := q.db.QueryRowContext(ctx, getSigningKeyByKid, kid).Scan(
		&i.ID,
		&i.Kid,
		&i.Algorithm,
		&i.PrivateKeyEncrypted,
		&i.CreatedAt,
		&i.RetiredAt,
		&i.ExpiresAt,
	)
	return i, err
}

const listActiveSigningKeys = `SELECT ` + signingKeyColumns + `
FROM signing_keys
WHERE retired_at IS NULL AND expires_at > ?
ORDER BY created_at DESC`

func (q *Queries) ListActiveSigningKeys(ctx context.Context, now int64) ([]SigningKey, error) {
	return scanSigningKeys(q.db.QueryContext(ctx, listActiveSigningKeys, now))
}

const listVerifiableSigningKeys = `SELECT ` + signingKeyColumns + `
FROM signing_keys
WHERE expires_at > ?
ORDER BY created_at DESC`

func (q *Queries) ListVerifiableSigningKeys(ctx context.Context, now int64) ([]SigningKey, error) {
	return scanSigningKeys(q.db.QueryContext(ctx, listVerifiableSigningKeys, now))
}

const retireSigningKey = `
UPDATE signing_keys SET retired_at = ?, expires_at = ?
WHERE kid = ? AND retired_at IS NULL`

func (q *Queries) RetireSigningKey(ctx context.Context, retiredAt, expiresAt int64, kid string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, retireSigningKey, retiredAt, expiresAt, kid))
}

const deleteExpiredSigningKeys = `DELETE FROM signing_keys WHERE expires_at <= ?`

func (q *Queries) DeleteExpiredSigningKeys(ctx context.Context, now int64) error {
	_, err := q.db.ExecContext(ctx, deleteExpiredSigningKeys, now)
	return err
}
