package domain

import "time"

// TokenPair is what a completed login returns.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"` // access token lifetime in seconds
}

// AuthResult is either a token pair or an MFA challenge, never both.
type AuthResult struct {
	Authenticated   bool
	RequiresMFA     bool
	MFASessionToken string
	Tokens          *TokenPair
	Message         string
	Email           string
}

// RefreshToken is the persisted half of a refresh JWT, keyed by its jti.
type RefreshToken struct {
	ID        string
	JTI       string
	AccountID string
	Role      Role
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OneTimeToken backs password reset and email verification links. Used only
// ever goes from false to true.
type OneTimeToken struct {
	Token     string
	AccountID string
	Role      Role
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Usable reports whether the token can still be consumed at now.
func (t OneTimeToken) Usable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
