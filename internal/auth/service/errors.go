package service

import "errors"

// ErrorKind classifies failures the HTTP layer turns into status codes.
type ErrorKind int

const (
	KindInvalidCredentials ErrorKind = iota + 1
	KindUnauthorized
	KindMFAValidationFailure
	KindUserNotFound
	KindInvalidToken
	KindIllegalArgument
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthorized:
		return "unauthorized"
	case KindMFAValidationFailure:
		return "mfa_validation_failure"
	case KindUserNotFound:
		return "user_not_found"
	case KindInvalidToken:
		return "invalid_token"
	case KindIllegalArgument:
		return "illegal_argument"
	}
	return "unknown"
}

// AuthError is an expected, per-request failure. Message is safe to show
// to the caller; Err, when set, is the internal cause and is never shown.
type AuthError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches the kind sentinels below regardless of message.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials   = &AuthError{Kind: KindInvalidCredentials}
	ErrUnauthorized         = &AuthError{Kind: KindUnauthorized}
	ErrMFAValidationFailure = &AuthError{Kind: KindMFAValidationFailure}
	ErrUserNotFound         = &AuthError{Kind: KindUserNotFound}
	ErrInvalidToken         = &AuthError{Kind: KindInvalidToken}
	ErrIllegalArgument      = &AuthError{Kind: KindIllegalArgument}
)

// KindOf reports the kind of the first AuthError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

func invalidCredentials(msg string) error {
	return &AuthError{Kind: KindInvalidCredentials, Message: msg}
}

func unauthorized(msg string) error {
	return &AuthError{Kind: KindUnauthorized, Message: msg}
}

func mfaFailure(msg string) error {
	return &AuthError{Kind: KindMFAValidationFailure, Message: msg}
}

func userNotFound(msg string) error {
	return &AuthError{Kind: KindUserNotFound, Message: msg}
}

func invalidToken(msg string) error {
	return &AuthError{Kind: KindInvalidToken, Message: msg}
}

func illegalArgument(msg string) error {
	return &AuthError{Kind: KindIllegalArgument, Message: msg}
}

// User facing messages.
const (
	msgInvalidEmailOrPassword = "Invalid email or password"
	msgRecaptchaFailed        = "reCAPTCHA validation failed"
	msgAccountLocked          = "Account is locked"
	msgEmailNotVerified       = "Email not verified"
	msgDifferentProvider      = "Email already exists with a different provider."
	msgUnsupportedProvider    = "Unsupported authentication provider"
	msgUnknownRole            = "Unknown role"
	msgInvalidMFASession      = "Invalid or expired MFA session"
	msgInvalidMFACode         = "Invalid MFA code"
	msgMFAVerificationFailed  = "MFA verification failed"
	msgMFAAlreadyEnabled      = "MFA already enabled"
	msgMFANotFound            = "MFA not found"
	msgMFANotSetUp            = "MFA setup not started"
	msgPasswordsDoNotMatch    = "New passwords do not match"
	msgInvalidResetToken      = "Invalid or expired token"
	msgInvalidVerifyToken     = "Invalid or expired verification token"
	msgUserNotFound           = "User not found"
	msgEmailRegistered        = "Email already registered"
	msgInvalidRefreshToken    = "Invalid refresh token"
)
