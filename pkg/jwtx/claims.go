package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/skygate/pkg/idx"
)

// TokenType is carried in the "typ" claim so one key set can sign tokens
// with different purposes without them being interchangeable.
type TokenType string

const (
	TypeAccess     TokenType = "access"
	TypeRefresh    TokenType = "refresh"
	TypeMFASession TokenType = "mfa_session"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultMFASessionTTL   = 5 * time.Minute
)

// Claims are the claims every token minted by the auth service carries.
type Claims struct {
	jwt.RegisteredClaims

	Email string    `json:"email,omitempty"`
	Role  string    `json:"role,omitempty"`
	Type  TokenType `json:"typ"`
}

// NewClaims builds claims for subject valid from now for ttl, with a fresh
// jti.
func NewClaims(typ TokenType, issuer, subject, email, role string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email: email,
		Role:  role,
		Type:  typ,
	}
}

// NewJTI returns a unique token identifier. ULIDs sort by mint time which
// keeps revocation tables tidy.
func NewJTI() string {
	return idx.New().String()
}

// Expiry returns exp, or the zero time when the claim is absent.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expect fails with ErrWrongType unless the token has the given type.
func (c Claims) Expect(typ TokenType) error {
	if c.Type != typ {
		return ErrWrongType
	}
	return nil
}
