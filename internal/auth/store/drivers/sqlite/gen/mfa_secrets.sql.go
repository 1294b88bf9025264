package gen

import "context"

const getMfaSecret = `
SELECT id, account_id, role, secret, verified, backup_codes, created_at, updated_at
FROM mfa_secrets
WHERE account_id = ? AND role = ?`

func (q *Queries) GetMfaSecret(ctx context.Context, accountID, role string) (MfaSecret, error) {
	var i MfaSecret
	err := q.db.QueryRowContext(ctx, getMfaSecret, accountID, role).Scan(
		&i.ID,
		&i.AccountID,
		&i.Role,
		&i.Secret,
		&i.Verified,
		&i.BackupCodes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// upsertUnverifiedMfaSecret replaces an abandoned setup but leaves a
// verified row untouched, in which case no row is affected.
const upsertUnverifiedMfaSecret = `
INSERT INTO mfa_secrets (id, account_id, role, secret, verified, backup_codes, created_at, updated_at)
VALUES (?, ?, ?, ?, 0, ?, ?, ?)
ON CONFLICT (account_id, role) DO UPDATE SET
    secret       = excluded.secret,
    backup_codes = excluded.backup_codes,
    created_at   = excluded.created_at,
    updated_at   = excluded.updated_at
WHERE mfa_secrets.verified = 0`

type UpsertUnverifiedMfaSecretParams struct {
	ID          string
	AccountID   string
	Role        string
	Secret      string
	BackupCodes string
	CreatedAt   int64
}

func (q *Queries) UpsertUnverifiedMfaSecret(ctx context.Context, arg UpsertUnverifiedMfaSecretParams) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, upsertUnverifiedMfaSecret,
		arg.ID,
		arg.AccountID,
		arg.Role,
		arg.Secret,
		arg.BackupCodes,
		arg.CreatedAt,
		arg.CreatedAt,
	))
}

const markMfaSecretVerified = `
UPDATE mfa_secrets SET verified = 1, updated_at = ?
WHERE account_id = ? AND role = ? AND verified = 0`

func (q *Queries) MarkMfaSecretVerified(ctx context.Context, at int64, accountID, role string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, markMfaSecretVerified, at, accountID, role))
}

// swapMfaBackupCodes only writes when the stored aggregate still equals the
// one the caller read.
const swapMfaBackupCodes = `
UPDATE mfa_secrets SET backup_codes = ?, updated_at = ?
WHERE account_id = ? AND role = ? AND backup_codes = ?`

type SwapMfaBackupCodesParams struct {
	NewCodes  string
	UpdatedAt int64
	AccountID string
	Role      string
	OldCodes  string
}

func (q *Queries) SwapMfaBackupCodes(ctx context.Context, arg SwapMfaBackupCodesParams) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, swapMfaBackupCodes,
		arg.NewCodes, arg.UpdatedAt, arg.AccountID, arg.Role, arg.OldCodes))
}

const deleteMfaSecret = `DELETE FROM mfa_secrets WHERE account_id = ? AND role = ?`

func (q *Queries) DeleteMfaSecret(ctx context.Context, accountID, role string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteMfaSecret, accountID, role))
}
