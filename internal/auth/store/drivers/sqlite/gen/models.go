package gen

import "database/sql"

type Account struct {
	ID                  string
	Role                string
	Email               string
	Name                string
	PasswordHash        sql.NullString
	AuthProvider        string
	ProviderID          sql.NullString
	EmailVerified       bool
	AccountLocked       bool
	FailedLoginAttempts int64
	LastLoginAt         sql.NullInt64
	CreatedAt           int64
	UpdatedAt           int64
	MfaEnabled          bool
}

type MfaSecret struct {
	ID          string
	AccountID   string
	Role        string
	Secret      string
	Verified    bool
	BackupCodes string
	CreatedAt   int64
	UpdatedAt   int64
}

// OneTimeToken is the shared row shape of password_reset_tokens and
// email_verification_tokens.
type OneTimeToken struct {
	Token     string
	AccountID string
	Role      string
	ExpiresAt int64
	Used      bool
	CreatedAt int64
}

type RefreshToken struct {
	ID        string
	Jti       string
	AccountID string
	Role      string
	ExpiresAt int64
	Revoked   bool
	CreatedAt int64
	UpdatedAt int64
}

type SigningKey struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           int64
	RetiredAt           sql.NullInt64
	ExpiresAt           int64
}
