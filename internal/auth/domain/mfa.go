package domain

import "time"

// BackupCodeCount is how many recovery codes a setup or regeneration issues.
const BackupCodeCount = 10

// MFASecret is the TOTP configuration of one (account, role). BackupCodes is
// the encrypted aggregate, never plaintext.
type MFASecret struct {
	ID          string
	AccountID   string
	Role        Role
	Secret      string // base32 TOTP seed
	Verified    bool
	BackupCodes string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MFASetup is shown to the user once, at enrollment.
type MFASetup struct {
	Secret      string   `json:"secret"`
	QRCodeURL   string   `json:"qrCodeUrl"`
	OTPAuthURL  string   `json:"otpauthUrl"`
	BackupCodes []string `json:"backupCodes"`
	MFAEnabled  bool     `json:"mfaEnabled"`
}

type MFAStatus struct {
	MFAEnabled bool `json:"mfaEnabled"`
}
