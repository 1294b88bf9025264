package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/metrics"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/idx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

// maxBackupCodeSwaps bounds the compare-and-swap retries when two requests
// touch the same backup code aggregate at once.
const maxBackupCodeSwaps = 3

// MFAManager owns the MFA secret of each (account, role):
// NOT_CONFIGURED -> UNVERIFIED -> ENABLED, and back to NOT_CONFIGURED on
// disable. Wrong codes are a false result, not an error.
type MFAManager struct {
	Store store.Store
	TOTP  *TOTP
	Vault *BackupCodeVault
	Now   func() time.Time
}

func (m *MFAManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// SetupMFA starts enrolment. An abandoned unverified setup is replaced; a
// verified one must be disabled first.
func (m *MFAManager) SetupMFA(ctx context.Context, accountID string, role domain.Role, accountName string) (domain.MFASetup, error) {
	existing, err := m.Store.MFASecrets().GetMFASecret(ctx, accountID, role)
	switch {
	case err == nil && existing.Verified:
		return domain.MFASetup{}, mfaFailure(msgMFAAlreadyEnabled)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return domain.MFASetup{}, fmt.Errorf("load mfa secret: %w", err)
	}

	key, err := m.TOTP.Generate(accountName)
	if err != nil {
		return domain.MFASetup{}, fmt.Errorf("generate totp key: %w", err)
	}
	codes, err := GenerateBackupCodes()
	if err != nil {
		return domain.MFASetup{}, err
	}
	blob, err := m.Vault.Encrypt(codes)
	if err != nil {
		return domain.MFASetup{}, err
	}

	err = m.Store.MFASecrets().UpsertUnverified(ctx, domain.MFASecret{
		ID:          idx.New().String(),
		AccountID:   accountID,
		Role:        role,
		Secret:      key.Secret(),
		BackupCodes: blob,
		CreatedAt:   m.now(),
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// A concurrent setup was verified between our read and write.
		return domain.MFASetup{}, mfaFailure(msgMFAAlreadyEnabled)
	}
	if err != nil {
		return domain.MFASetup{}, fmt.Errorf("store mfa secret: %w", err)
	}

	slogx.FromContext(ctx).Info("mfa setup started", slog.String("account_id", accountID))
	return domain.MFASetup{
		Secret:      key.Secret(),
		QRCodeURL:   QRCodeURL(key.URL()),
		OTPAuthURL:  key.URL(),
		BackupCodes: codes,
		MFAEnabled:  false,
	}, nil
}

// VerifyAndEnableMFA enables MFA when code matches the pending secret.
func (m *MFAManager) VerifyAndEnableMFA(ctx context.Context, accountID string, role domain.Role, code string) (bool, error) {
	rec, err := m.Store.MFASecrets().GetMFASecret(ctx, accountID, role)
	if errors.Is(err, store.ErrNotFound) {
		return false, mfaFailure(msgMFANotSetUp)
	}
	if err != nil {
		return false, fmt.Errorf("load mfa secret: %w", err)
	}
	if rec.Verified {
		return false, mfaFailure(msgMFAAlreadyEnabled)
	}

	if !m.TOTP.Validate(code, rec.Secret) {
		metrics.MFAVerifications.WithLabelValues("enrol", metrics.OutcomeFailure).Inc()
		return false, nil
	}

	err = m.Store.MFASecrets().MarkVerified(ctx, accountID, role, m.now())
	if errors.Is(err, store.ErrNotFound) {
		// Verified or disabled concurrently.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("enable mfa: %w", err)
	}

	metrics.MFAVerifications.WithLabelValues("enrol", metrics.OutcomeSuccess).Inc()
	slogx.FromContext(ctx).Info("mfa enabled", slog.String("account_id", accountID))
	return true, nil
}

// ValidateMFACode accepts a TOTP code or an unused backup code. A matched
// backup code is removed from the aggregate. A blob that cannot be
// decrypted counts as no match.
func (m *MFAManager) ValidateMFACode(ctx context.Context, accountID string, role domain.Role, code string) (bool, error) {
	l := slogx.FromContext(ctx)

	for range maxBackupCodeSwaps {
		rec, err := m.Store.MFASecrets().GetMFASecret(ctx, accountID, role)
		if errors.Is(err, store.ErrNotFound) {
			return false, mfaFailure(msgMFANotFound)
		}
		if err != nil {
			return false, fmt.Errorf("load mfa secret: %w", err)
		}

		if m.TOTP.Validate(code, rec.Secret) {
			metrics.MFAVerifications.WithLabelValues("totp", metrics.OutcomeSuccess).Inc()
			return true, nil
		}

		codes, err := m.Vault.Decrypt(rec.BackupCodes)
		if err != nil {
			l.Warn("backup codes unreadable", slog.String("account_id", accountID), slog.Any("error", err))
			metrics.MFAVerifications.WithLabelValues("backup_code", metrics.OutcomeFailure).Inc()
			return false, nil
		}
		rest, ok := consumeBackupCode(codes, code)
		if !ok {
			metrics.MFAVerifications.WithLabelValues("totp", metrics.OutcomeFailure).Inc()
			return false, nil
		}

		blob, err := m.Vault.Encrypt(rest)
		if err != nil {
			return false, err
		}
		swapped, err := m.Store.MFASecrets().SwapBackupCodes(ctx, accountID, role, rec.BackupCodes, blob, m.now())
		if err != nil {
			return false, fmt.Errorf("store backup codes: %w", err)
		}
		if swapped {
			metrics.MFAVerifications.WithLabelValues("backup_code", metrics.OutcomeSuccess).Inc()
			l.Info("backup code used", slog.String("account_id", accountID), slog.Int("remaining", len(rest)))
			return true, nil
		}
		// Someone else rewrote the aggregate; re-read and try again.
	}
	return false, fmt.Errorf("backup codes changed concurrently")
}

// DisableMFA removes the record whatever its verification state.
func (m *MFAManager) DisableMFA(ctx context.Context, accountID string, role domain.Role) error {
	err := m.Store.MFASecrets().DeleteMFASecret(ctx, accountID, role)
	if errors.Is(err, store.ErrNotFound) {
		return mfaFailure(msgMFANotFound)
	}
	if err != nil {
		return fmt.Errorf("delete mfa secret: %w", err)
	}
	slogx.FromContext(ctx).Info("mfa disabled", slog.String("account_id", accountID))
	return nil
}

func (m *MFAManager) GetMFAStatus(ctx context.Context, accountID string, role domain.Role) (domain.MFAStatus, error) {
	rec, err := m.Store.MFASecrets().GetMFASecret(ctx, accountID, role)
	if errors.Is(err, store.ErrNotFound) {
		return domain.MFAStatus{MFAEnabled: false}, nil
	}
	if err != nil {
		return domain.MFAStatus{}, fmt.Errorf("load mfa secret: %w", err)
	}
	return domain.MFAStatus{MFAEnabled: rec.Verified}, nil
}

// RegenerateBackupCodes replaces the aggregate and keeps the TOTP secret.
// The returned codes are never retrievable again.
func (m *MFAManager) RegenerateBackupCodes(ctx context.Context, accountID string, role domain.Role) ([]string, error) {
	for range maxBackupCodeSwaps {
		rec, err := m.Store.MFASecrets().GetMFASecret(ctx, accountID, role)
		if errors.Is(err, store.ErrNotFound) {
			return nil, mfaFailure(msgMFANotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("load mfa secret: %w", err)
		}

		codes, err := GenerateBackupCodes()
		if err != nil {
			return nil, err
		}
		blob, err := m.Vault.Encrypt(codes)
		if err != nil {
			return nil, err
		}

		swapped, err := m.Store.MFASecrets().SwapBackupCodes(ctx, accountID, role, rec.BackupCodes, blob, m.now())
		if err != nil {
			return nil, fmt.Errorf("store backup codes: %w", err)
		}
		if swapped {
			slogx.FromContext(ctx).Info("backup codes regenerated", slog.String("account_id", accountID))
			return codes, nil
		}
	}
	return nil, fmt.Errorf("backup codes changed concurrently")
}

// DisableWithCode checks a current code before disabling.
func (m *MFAManager) DisableWithCode(ctx context.Context, accountID string, role domain.Role, code string) error {
	if err := m.requireCode(ctx, accountID, role, code); err != nil {
		return err
	}
	return m.DisableMFA(ctx, accountID, role)
}

// RegenerateWithCode checks a current code before regenerating.
func (m *MFAManager) RegenerateWithCode(ctx context.Context, accountID string, role domain.Role, code string) ([]string, error) {
	if err := m.requireCode(ctx, accountID, role, code); err != nil {
		return nil, err
	}
	return m.RegenerateBackupCodes(ctx, accountID, role)
}

func (m *MFAManager) requireCode(ctx context.Context, accountID string, role domain.Role, code string) error {
	ok, err := m.ValidateMFACode(ctx, accountID, role, code)
	if err != nil {
		return err
	}
	if !ok {
		slogx.FromContext(ctx).Warn("mfa confirmation code rejected", slog.String("account_id", accountID))
		return invalidCredentials(msgInvalidMFACode)
	}
	return nil
}
