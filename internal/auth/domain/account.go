package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is both the account kind and its authorization level. Emails are
// unique within a role, not across roles.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperadmin Role = "SUPERADMIN"
)

// LookupOrder is the fixed order in which kinds are searched when only an
// email is known.
var LookupOrder = []Role{RoleUser, RoleAdmin, RoleSuperadmin}

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// AuthProvider records which credential source created an account.
type AuthProvider string

const (
	ProviderEmail    AuthProvider = "EMAIL"
	ProviderGoogle   AuthProvider = "GOOGLE"
	ProviderFacebook AuthProvider = "FACEBOOK"
)

func ParseAuthProvider(s string) (AuthProvider, error) {
	switch p := AuthProvider(strings.ToUpper(strings.TrimSpace(s))); p {
	case ProviderEmail, ProviderGoogle, ProviderFacebook:
		return p, nil
	}
	return "", fmt.Errorf("unknown auth provider %q", s)
}

func (p AuthProvider) String() string { return string(p) }

// Account is a user, admin or superadmin.
type Account struct {
	ID                  string
	Role                Role
	Email               string
	Name                string
	PasswordHash        *string // nil for accounts that never had a password
	AuthProvider        AuthProvider
	ProviderID          *string // set for social accounts
	EmailVerified       bool
	Locked              bool
	FailedLoginAttempts int
	MFAEnabled          bool // derived from a verified MFA secret, never stored
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NormalizeEmail is applied before every store lookup and write.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
