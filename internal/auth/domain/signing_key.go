package domain

import "time"

// SigningKey is a JWT signing key at rest. The private key is sealed under
// the service master key.
type SigningKey struct {
	ID                  string
	Kid                 string
	Algorithm           string // RS256, ES256 or EdDSA
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time // nil while the key still signs
	ExpiresAt           time.Time  // verification ends and the row may be purged
}

func (k *SigningKey) IsActive(now time.Time) bool {
	return k.RetiredAt == nil && now.Before(k.ExpiresAt)
}

func (k *SigningKey) IsExpired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}
