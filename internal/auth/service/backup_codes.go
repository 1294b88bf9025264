package service

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/pkg/cryptox"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
)

const (
	backupCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	backupCodeLength   = 8
)

var errMalformedBackupCodes = errors.New("malformed backup code blob")

// GenerateBackupCodes returns domain.BackupCodeCount fresh recovery codes.
func GenerateBackupCodes() ([]string, error) {
	codes := make([]string, domain.BackupCodeCount)
	for i := range codes {
		code, err := cryptox.RandomString(backupCodeAlphabet, backupCodeLength)
		if err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		codes[i] = code
	}
	return codes, nil
}

// BackupCodeVault encrypts the backup code aggregate. Every aggregate gets
// its own data key, stored next to the ciphertext as "key:ciphertext"; the
// data key itself is sealed under the service master key.
type BackupCodeVault struct {
	Sealer jwtx.Sealer
}

func (v *BackupCodeVault) Encrypt(codes []string) (string, error) {
	key, err := cryptox.NewDataKey()
	if err != nil {
		return "", err
	}
	sealedKey, err := v.Sealer.Seal(key)
	if err != nil {
		return "", fmt.Errorf("seal data key: %w", err)
	}
	ct, err := cryptox.EncryptWithKey(key, []byte(strings.Join(codes, ",")))
	if err != nil {
		return "", fmt.Errorf("encrypt backup codes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealedKey) + ":" + ct, nil
}

func (v *BackupCodeVault) Decrypt(blob string) ([]string, error) {
	encKey, ct, ok := strings.Cut(blob, ":")
	if !ok {
		return nil, errMalformedBackupCodes
	}
	sealedKey, err := base64.StdEncoding.DecodeString(encKey)
	if err != nil {
		return nil, errMalformedBackupCodes
	}
	key, err := v.Sealer.Open(sealedKey)
	if err != nil {
		return nil, fmt.Errorf("open data key: %w", err)
	}
	plain, err := cryptox.DecryptWithKey(key, ct)
	if err != nil {
		return nil, fmt.Errorf("decrypt backup codes: %w", err)
	}
	if len(plain) == 0 {
		return nil, nil
	}
	return strings.Split(string(plain), ","), nil
}

// consumeBackupCode removes code from codes. Comparison ignores case and
// surrounding whitespace and does not short-circuit.
func consumeBackupCode(codes []string, code string) ([]string, bool) {
	want := []byte(strings.ToUpper(strings.TrimSpace(code)))
	if len(want) != backupCodeLength {
		return codes, false
	}

	match := -1
	for i, c := range codes {
		if subtle.ConstantTimeCompare([]byte(c), want) == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return codes, false
	}

	rest := make([]string, 0, len(codes)-1)
	rest = append(rest, codes[:match]...)
	rest = append(rest, codes[match+1:]...)
	return rest, true
}
