package authsdk

import (
	"time"

	"github.com/aussiebroadwan/skygate/pkg/jwtx"
)

// ============================================================================
// Envelope
// ============================================================================

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Invalid email or password"`
}

// MessageResponse is returned by endpoints that only report an outcome.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty"`
}

// ============================================================================
// Login Types
// ============================================================================

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email          string `json:"email" validate:"required,email,max=254" example:"ann@example.com"`
	Password       string `json:"password" validate:"required,max=128"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// SocialLoginRequest is the body of POST /api/auth/login/{google,facebook}.
type SocialLoginRequest struct {
	AccessToken    string `json:"accessToken" validate:"required"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// VerifyMFARequest completes a login that answered requiresMfa. Email is
// informational; the identity comes from the session token.
type VerifyMFARequest struct {
	Email        string `json:"email,omitempty"`
	Code         string `json:"code" validate:"required,max=16"`
	SessionToken string `json:"sessionToken" validate:"required"`
}

// TokenPair holds the credentials of a completed login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType" example:"Bearer"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn" example:"900"`
}

// AuthResponse answers every login and MFA verification. Exactly one of
// MFASessionToken and Tokens is set.
type AuthResponse struct {
	Success         bool       `json:"success"`
	Message         string     `json:"message"`
	RequiresMFA     bool       `json:"requiresMfa"`
	MFASessionToken string     `json:"mfaSessionToken,omitempty"`
	Tokens          *TokenPair `json:"tokens,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ============================================================================
// Password Reset Types
// ============================================================================

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,max=128"`
}

// ============================================================================
// Registration Types
// ============================================================================

// RegisterRequest creates an email account. RecaptchaToken is only checked
// on public USER registration.
type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email,max=254"`
	Password       string `json:"password" validate:"required,min=8,max=128"`
	Name           string `json:"name" validate:"max=64"`
	RecaptchaToken string `json:"recaptchaToken,omitempty"`
}

type RegisterResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	AccountID     string `json:"accountId"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

// ============================================================================
// Profile Types
// ============================================================================

// ProfileResponse is returned from GET /api/auth/me.
type ProfileResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name,omitempty"`
	Role          string     `json:"role" example:"USER"`
	AuthProvider  string     `json:"authProvider" example:"EMAIL"`
	EmailVerified bool       `json:"emailVerified"`
	MFAEnabled    bool       `json:"mfaEnabled"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ============================================================================
// MFA Types
// ============================================================================

// MFASetupResponse is shown once. BackupCodes cannot be retrieved again.
type MFASetupResponse struct {
	Secret      string   `json:"secret" example:"JBSWY3DPEHPK3PXP"`
	QRCodeURL   string   `json:"qrCodeUrl"`
	OTPAuthURL  string   `json:"otpauthUrl" example:"otpauth://totp/AirlineTicketing:ann@example.com?secret=JBSWY3DPEHPK3PXP&issuer=AirlineTicketing"`
	BackupCodes []string `json:"backupCodes"`
	MFAEnabled  bool     `json:"mfaEnabled"`
}

// MFAValidateRequest carries the first code of a pending setup.
type MFAValidateRequest struct {
	Code string `json:"code" validate:"required,max=16"`
}

type MFAValidateResponse struct {
	Success bool `json:"success"`
	Valid   bool `json:"valid"`
}

// MFAConfirmRequest carries a current TOTP or backup code for disable and
// backup code regeneration.
type MFAConfirmRequest struct {
	ConfirmationCode string `json:"confirmationCode" validate:"required,max=16"`
}

type MFAStatusResponse struct {
	MFAEnabled bool `json:"mfaEnabled"`
}

type BackupCodesResponse struct {
	Success     bool     `json:"success"`
	BackupCodes []string `json:"backupCodes"`
}

// ============================================================================
// Bootstrap Types
// ============================================================================

// BootstrapRequest creates the first SUPERADMIN.
type BootstrapRequest struct {
	Token    string `json:"token" validate:"required"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"max=64"`
}

type BootstrapResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	AccountID string `json:"accountId"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz. Checks is only set by
// /readyz.
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime,omitempty" example:"1h23m45s"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database    string `json:"database"`
	Signer      string `json:"signer"`
	Revocations string `json:"revocations,omitempty"`
}

// ============================================================================
// Key Types
// ============================================================================

// JWKSResponse is the public key set at /.well-known/jwks.json.
type JWKSResponse jwtx.JWKS

type RotateKeyRequest struct {
	// RetireExisting stops every current key from signing once the new key
	// is live. Retired keys keep verifying until their grace period ends.
	RetireExisting bool `json:"retireExisting"`
}

type SigningKeyInfo struct {
	Kid       string     `json:"kid"`
	Algorithm string     `json:"alg" example:"EdDSA"`
	Active    bool       `json:"active"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	RetiredAt *time.Time `json:"retiredAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type RotateKeyResponse struct {
	NewKey      SigningKeyInfo `json:"newKey"`
	RetiredKids []string       `json:"retiredKids,omitempty"`
	ActiveKeys  int            `json:"activeKeys"`
}

type ListKeysResponse struct {
	Keys []SigningKeyInfo `json:"keys"`
}
