package gen

import (
	"context"
	"database/sql"
)

const accountColumns = `
    a.id, a.role, a.email, a.name, a.password_hash, a.auth_provider, a.provider_id,
    a.email_verified, a.account_locked, a.failed_login_attempts, a.last_login_at,
    a.created_at, a.updated_at,
    EXISTS (
        SELECT 1 FROM mfa_secrets m
        WHERE m.account_id = a.id AND m.role = a.role AND m.verified = 1
    ) AS mfa_enabled`

func scanAccount(row *sql.Row) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.Role,
		&i.Email,
		&i.Name,
		&i.PasswordHash,
		&i.AuthProvider,
		&i.ProviderID,
		&i.EmailVerified,
		&i.AccountLocked,
		&i.FailedLoginAttempts,
		&i.LastLoginAt,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.MfaEnabled,
	)
	return i, err
}

const getAccountByID = `SELECT ` + accountColumns + `
FROM accounts a
WHERE a.role = ? AND a.id = ?`

func (q *Queries) GetAccountByID(ctx context.Context, role, id string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountByID, role, id))
}

const getAccountByEmail = `SELECT ` + accountColumns + `
FROM accounts a
WHERE a.role = ? AND a.email = ?`

func (q *Queries) GetAccountByEmail(ctx context.Context, role, email string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountByEmail, role, email))
}

const getAccountByProviderID = `SELECT ` + accountColumns + `
FROM accounts a
WHERE a.auth_provider = ? AND a.provider_id = ?`

func (q *Queries) GetAccountByProviderID(ctx context.Context, provider, providerID string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountByProviderID, provider, providerID))
}

const createAccount = `
INSERT INTO accounts (
    id, role, email, name, password_hash, auth_provider, provider_id,
    email_verified, account_locked, failed_login_attempts, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`

type CreateAccountParams struct {
	ID            string
	Role          string
	Email         string
	Name          string
	PasswordHash  sql.NullString
	AuthProvider  string
	ProviderID    sql.NullString
	EmailVerified bool
	AccountLocked bool
	CreatedAt     int64
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.ExecContext(ctx, createAccount,
		arg.ID,
		arg.Role,
		arg.Email,
		arg.Name,
		arg.PasswordHash,
		arg.AuthProvider,
		arg.ProviderID,
		arg.EmailVerified,
		arg.AccountLocked,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return err
}

// setAccountPassword also clears any lockout.
const setAccountPassword = `
UPDATE accounts
SET password_hash = ?, account_locked = 0, failed_login_attempts = 0, updated_at = ?
WHERE role = ? AND id = ?`

type SetAccountPasswordParams struct {
	PasswordHash string
	UpdatedAt    int64
	Role         string
	ID           string
}

func (q *Queries) SetAccountPassword(ctx context.Context, arg SetAccountPasswordParams) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, setAccountPassword, arg.PasswordHash, arg.UpdatedAt, arg.Role, arg.ID))
}

const recordLoginSuccess = `
UPDATE accounts
SET failed_login_attempts = 0, last_login_at = ?, updated_at = ?
WHERE role = ? AND id = ?`

func (q *Queries) RecordLoginSuccess(ctx context.Context, at int64, role, id string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, recordLoginSuccess, at, at, role, id))
}

const recordLoginFailure = `
UPDATE accounts
SET failed_login_attempts = failed_login_attempts + 1,
    account_locked = CASE WHEN failed_login_attempts + 1 >= ? THEN 1 ELSE account_locked END,
    updated_at = ?
WHERE role = ? AND id = ?
RETURNING failed_login_attempts, account_locked`

type RecordLoginFailureRow struct {
	FailedLoginAttempts int64
	AccountLocked       bool
}

func (q *Queries) RecordLoginFailure(ctx context.Context, lockAt, at int64, role, id string) (RecordLoginFailureRow, error) {
	var i RecordLoginFailureRow
	err := q.db.QueryRowContext(ctx, recordLoginFailure, lockAt, at, role, id).
		Scan(&i.FailedLoginAttempts, &i.AccountLocked)
	return i, err
}

const markAccountEmailVerified = `
UPDATE accounts SET email_verified = 1, updated_at = ? WHERE role = ? AND id = ?`

func (q *Queries) MarkAccountEmailVerified(ctx context.Context, at int64, role, id string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, markAccountEmailVerified, at, role, id))
}

const countAccountsByRole = `SELECT COUNT(*) FROM accounts WHERE role = ?`

func (q *Queries) CountAccountsByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countAccountsByRole, role).Scan(&n)
	return n, err
}
