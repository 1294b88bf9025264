package service

import (
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	TOTPPeriod = 30

	// TOTPSkew accepts codes from one step either side of now, so a code is
	// good for roughly 90 seconds.
	TOTPSkew = 1

	qrCodeBaseURL = "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data="
)

// TOTP generates enrolment secrets and checks six digit codes.
type TOTP struct {
	Issuer string
	Now    func() time.Time
}

func (t *TOTP) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Generate creates a new secret labelled with accountName.
func (t *TOTP) Generate(accountName string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      t.Issuer,
		AccountName: accountName,
		Period:      TOTPPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
}

// Validate reports whether code matches secret within the skew window.
func (t *TOTP) Validate(code, secret string) bool {
	if len(code) != 6 {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, t.now().UTC(), totp.ValidateOpts{
		Period:    TOTPPeriod,
		Skew:      TOTPSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// QRCodeURL returns an image URL rendering the otpauth URI as a QR code.
func QRCodeURL(otpauthURL string) string {
	return qrCodeBaseURL + url.QueryEscape(otpauthURL)
}
