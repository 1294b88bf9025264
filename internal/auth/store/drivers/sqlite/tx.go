package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/internal/auth/store/drivers/sqlite/gen"
)

type txStore struct {
	tx *sql.Tx
	q  *gen.Queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{
		tx: tx,
		q:  gen.New(tx),
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // the caller commits or rolls back; the DB stays open

func (t *txStore) Ping(ctx context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Accounts() store.Accounts     { return &accountsRepo{q: t.q} }
func (t *txStore) MFASecrets() store.MFASecrets { return &mfaSecretsRepo{q: t.q} }
func (t *txStore) PasswordResetTokens() store.OneTimeTokens {
	return &oneTimeTokensRepo{q: t.q, table: gen.PasswordResetTokens}
}
func (t *txStore) VerificationTokens() store.OneTimeTokens {
	return &oneTimeTokensRepo{q: t.q, table: gen.EmailVerificationTokens}
}
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{q: t.q} }
func (t *txStore) Revocations() store.Revocations     { return &revocationsRepo{q: t.q} }
func (t *txStore) SigningKeys() store.SigningKeys     { return &signingKeysRepo{q: t.q} }

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx is opened
