package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers expose sub-repositories
// rather than flat methods so a transaction-scoped Store can hand out the
// same repositories bound to the transaction.
type Store interface {
	Accounts() Accounts
	MFASecrets() MFASecrets
	PasswordResetTokens() OneTimeTokens
	VerificationTokens() OneTimeTokens
	RefreshTokens() RefreshTokens
	Revocations() Revocations
	SigningKeys() SigningKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller must Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Accounts is scoped by role on every call; the three kinds never see each
// other's rows. Emails are expected normalised.
type Accounts interface {
	GetAccountByID(ctx context.Context, role domain.Role, id string) (domain.Account, error)
	GetAccountByEmail(ctx context.Context, role domain.Role, email string) (domain.Account, error)

	// GetAccountByProviderID resolves a social identity.
	GetAccountByProviderID(ctx context.Context, provider domain.AuthProvider, providerID string) (domain.Account, error)

	// CreateAccount fails with ErrAlreadyExists on a duplicate (role, email)
	// or (provider, provider id).
	CreateAccount(ctx context.Context, a domain.Account) error

	// SetPassword replaces the hash and clears lockout state.
	SetPassword(ctx context.Context, role domain.Role, id, hash string, at time.Time) error

	RecordLoginSuccess(ctx context.Context, role domain.Role, id string, at time.Time) error

	// RecordLoginFailure bumps the failure counter and locks the account once
	// it reaches lockAfter. It reports the new count and lock state.
	RecordLoginFailure(ctx context.Context, role domain.Role, id string, lockAfter int, at time.Time) (attempts int, locked bool, err error)

	MarkEmailVerified(ctx context.Context, role domain.Role, id string, at time.Time) error

	CountAccounts(ctx context.Context, role domain.Role) (int, error)
}

type MFASecrets interface {
	GetMFASecret(ctx context.Context, accountID string, role domain.Role) (domain.MFASecret, error)

	// UpsertUnverified stores a fresh setup, replacing an unverified one. It
	// returns ErrAlreadyExists if a verified secret is present.
	UpsertUnverified(ctx context.Context, s domain.MFASecret) error

	// MarkVerified flips verified once. ErrNotFound if there is no
	// unverified record.
	MarkVerified(ctx context.Context, accountID string, role domain.Role, at time.Time) error

	// SwapBackupCodes replaces the encrypted aggregate only if it still
	// equals old. It reports whether the swap happened.
	SwapBackupCodes(ctx context.Context, accountID string, role domain.Role, old, updated string, at time.Time) (bool, error)

	// DeleteMFASecret returns ErrNotFound if nothing was deleted.
	DeleteMFASecret(ctx context.Context, accountID string, role domain.Role) error
}

// OneTimeTokens backs both password reset and email verification tokens.
type OneTimeTokens interface {
	CreateToken(ctx context.Context, t domain.OneTimeToken) error
	GetToken(ctx context.Context, token string) (domain.OneTimeToken, error)

	// ConsumeToken marks the token used if it is unused and unexpired at
	// now. It reports whether this call was the one that consumed it.
	ConsumeToken(ctx context.Context, token string, now time.Time) (bool, error)

	// DeleteStaleTokens drops used and expired tokens.
	DeleteStaleTokens(ctx context.Context, now time.Time) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error
	GetRefreshTokenByJTI(ctx context.Context, jti string) (domain.RefreshToken, error)

	// RevokeRefreshToken reports false if the token was already revoked.
	RevokeRefreshToken(ctx context.Context, jti string, at time.Time) (bool, error)

	RevokeAccountRefreshTokens(ctx context.Context, accountID string, role domain.Role, at time.Time) error
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error
}

// Revocations is the denylist of token ids plus the per MFA session failure
// counter. Entries only need to outlive the token they refer to.
type Revocations interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	IncrementMFAAttempts(ctx context.Context, jti string, expiresAt time.Time) (int, error)
	DeleteExpiredRevocations(ctx context.Context, now time.Time) error
}

type SigningKeys interface {
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error
	GetSigningKeyByKid(ctx context.Context, kid string) (domain.SigningKey, error)

	// ListActiveSigningKeys returns unretired, unexpired keys, newest first.
	ListActiveSigningKeys(ctx context.Context, now time.Time) ([]domain.SigningKey, error)

	// ListVerifiableSigningKeys returns every unexpired key, retired or not.
	ListVerifiableSigningKeys(ctx context.Context, now time.Time) ([]domain.SigningKey, error)

	// RetireSigningKey stops a key from signing; it stays verifiable until
	// expiresAt. ErrNotFound if the key is unknown or already retired.
	RetireSigningKey(ctx context.Context, kid string, at, expiresAt time.Time) error

	DeleteExpiredSigningKeys(ctx context.Context, now time.Time) error
}
