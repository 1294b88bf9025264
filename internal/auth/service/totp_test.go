package service

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTOTPSkewWindow(t *testing.T) {
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 15, 0, time.UTC)}
	engine := &TOTP{Issuer: "AirlineTicketing", Now: clk.Now}
	h := &harness{clock: clk}

	key, err := engine.Generate("alice@example.com")
	require.NoError(t, err)
	secret := key.Secret()

	tests := []struct {
		name  string
		steps int
		want  bool
	}{
		{"current step", 0, true},
		{"one step behind", -1, true},
		{"one step ahead", 1, true},
		{"two steps behind", -2, false},
		{"two steps ahead", 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, engine.Validate(h.code(t, secret, tt.steps), secret))
		})
	}
}

func TestTOTPRejectsMalformedCodes(t *testing.T) {
	engine := &TOTP{Issuer: "AirlineTicketing"}
	key, err := engine.Generate("bob@example.com")
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "1234567", "abcdef"} {
		require.False(t, engine.Validate(code, key.Secret()), code)
	}
}

func TestGenerateProvisioningURI(t *testing.T) {
	engine := &TOTP{Issuer: "AirlineTicketing"}
	key, err := engine.Generate("carol@example.com")
	require.NoError(t, err)

	require.Equal(t, "AirlineTicketing", key.Issuer())
	require.Equal(t, "carol@example.com", key.AccountName())
	require.True(t, strings.HasPrefix(key.URL(), "otpauth://totp/"))

	qr := QRCodeURL(key.URL())
	u, err := url.Parse(qr)
	require.NoError(t, err)
	require.Equal(t, "api.qrserver.com", u.Host)
	require.Equal(t, key.URL(), u.Query().Get("data"))
}
