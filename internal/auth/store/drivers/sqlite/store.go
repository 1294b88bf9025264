package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/sqlite/gen"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is its own database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Accounts() store.Accounts     { return &accountsRepo{q: s.q} }
func (s *Store) MFASecrets() store.MFASecrets { return &mfaSecretsRepo{q: s.q} }
func (s *Store) PasswordResetTokens() store.OneTimeTokens {
	return &oneTimeTokensRepo{q: s.q, table: gen.PasswordResetTokens}
}
func (s *Store) VerificationTokens() store.OneTimeTokens {
	return &oneTimeTokensRepo{q: s.q, table: gen.EmailVerificationTokens}
}
func (s *Store) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{q: s.q} }
func (s *Store) Revocations() store.Revocations     { return &revocationsRepo{q: s.q} }
func (s *Store) SigningKeys() store.SigningKeys     { return &signingKeysRepo{q: s.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConflict turns unique and primary key violations into
// store.ErrAlreadyExists.
func mapConflict(err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		}
	}
	return err
}

// expectOne maps a zero row count to store.ErrNotFound.
func expectOne(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func unix(t time.Time) int64 { return t.Unix() }

func fromUnix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapOptionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapNullUnixPtr(n sql.NullInt64) *time.Time {
	if n.Valid {
		val := fromUnix(n.Int64)
		return &val
	}
	return nil
}

func mapAccount(row gen.Account) domain.Account {
	return domain.Account{
		ID:                  row.ID,
		Role:                domain.Role(row.Role),
		Email:               row.Email,
		Name:                row.Name,
		PasswordHash:        mapNullStringPtr(row.PasswordHash),
		AuthProvider:        domain.AuthProvider(row.AuthProvider),
		ProviderID:          mapNullStringPtr(row.ProviderID),
		EmailVerified:       row.EmailVerified,
		Locked:              row.AccountLocked,
		FailedLoginAttempts: int(row.FailedLoginAttempts),
		MFAEnabled:          row.MfaEnabled,
		LastLoginAt:         mapNullUnixPtr(row.LastLoginAt),
		CreatedAt:           fromUnix(row.CreatedAt),
		UpdatedAt:           fromUnix(row.UpdatedAt),
	}
}

func mapMFASecret(row gen.MfaSecret) domain.MFASecret {
	return domain.MFASecret{
		ID:          row.ID,
		AccountID:   row.AccountID,
		Role:        domain.Role(row.Role),
		Secret:      row.Secret,
		Verified:    row.Verified,
		BackupCodes: row.BackupCodes,
		CreatedAt:   fromUnix(row.CreatedAt),
		UpdatedAt:   fromUnix(row.UpdatedAt),
	}
}

func mapOneTimeToken(row gen.OneTimeToken) domain.OneTimeToken {
	return domain.OneTimeToken{
		Token:     row.Token,
		AccountID: row.AccountID,
		Role:      domain.Role(row.Role),
		ExpiresAt: fromUnix(row.ExpiresAt),
		Used:      row.Used,
		CreatedAt: fromUnix(row.CreatedAt),
	}
}

func mapRefreshToken(row gen.RefreshToken) domain.RefreshToken {
	return domain.RefreshToken{
		ID:        row.ID,
		JTI:       row.Jti,
		AccountID: row.AccountID,
		Role:      domain.Role(row.Role),
		ExpiresAt: fromUnix(row.ExpiresAt),
		Revoked:   row.Revoked,
		CreatedAt: fromUnix(row.CreatedAt),
		UpdatedAt: fromUnix(row.UpdatedAt),
	}
}

func mapSigningKey(row gen.SigningKey) domain.SigningKey {
	return domain.SigningKey{
		ID:                  row.ID,
		Kid:                 row.Kid,
		Algorithm:           row.Algorithm,
		PrivateKeyEncrypted: row.PrivateKeyEncrypted,
		CreatedAt:           fromUnix(row.CreatedAt),
		RetiredAt:           mapNullUnixPtr(row.RetiredAt),
		ExpiresAt:           fromUnix(row.ExpiresAt),
	}
}

func mapSigningKeys(rows []gen.SigningKey) []domain.SigningKey {
	out := make([]domain.SigningKey, len(rows))
	for i, row := range rows {
		out[i] = mapSigningKey(row)
	}
	return out
}
