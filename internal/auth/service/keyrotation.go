package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
	"github.com/aussiebroadwan/skygate/pkg/jwtx"
	"github.com/aussiebroadwan/skygate/pkg/slogx"
)

const (
	defaultKeyLifetime = 90 * 24 * time.Hour
	defaultKeyGrace    = 30 * 24 * time.Hour
)

var ErrKeyNotFound = errors.New("signing key not found")

// KeyRotationService rotates JWT signing keys at runtime.
//
// With Store == nil (ephemeral mode) keys only live in the KeyManager and
// retired keys verify until restart. Otherwise new keys are sealed and
// persisted, and retired keys verify until their grace period ends.
type KeyRotationService struct {
	Store       store.Store
	KeyManager  *jwtx.KeyManager
	Sealer      jwtx.Sealer
	Algorithm   string
	RSABits     int
	Lifetime    time.Duration
	GracePeriod time.Duration
	Now         func() time.Time
}

type RotateKeyRequest struct {
	// RetireExisting retires every current signer once the new key is live.
	RetireExisting bool `json:"retireExisting"`
}

type KeyInfo struct {
	Kid       string     `json:"kid"`
	Algorithm string     `json:"alg"`
	Active    bool       `json:"active"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	RetiredAt *time.Time `json:"retiredAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type RotateKeyResponse struct {
	NewKey      KeyInfo  `json:"newKey"`
	RetiredKids []string `json:"retiredKids,omitempty"`
	ActiveKeys  int      `json:"activeKeys"`
}

func (s *KeyRotationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *KeyRotationService) grace() time.Duration {
	if s.GracePeriod > 0 {
		return s.GracePeriod
	}
	return defaultKeyGrace
}

func (s *KeyRotationService) RotateKey(ctx context.Context, req RotateKeyRequest) (*RotateKeyResponse, error) {
	if s.KeyManager == nil {
		return nil, errors.New("KeyManager is required")
	}
	l := slogx.FromContext(ctx)
	now := s.now()
	previous := s.KeyManager.ActiveKIDs()

	var signer *jwtx.Signer
	info := KeyInfo{Algorithm: s.Algorithm, Active: true, CreatedAt: &now}

	if s.Store != nil {
		lifetime := s.Lifetime
		if lifetime <= 0 {
			lifetime = defaultKeyLifetime
		}
		var rec jwtx.SigningKeyRecord
		var err error
		signer, rec, err = jwtx.NewSealedSigner(s.Sealer, s.Algorithm, s.RSABits, lifetime, now)
		if err != nil {
			return nil, err
		}
		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.SigningKeys().CreateSigningKey(ctx, store.SigningKeyFromRecord(rec)); err != nil {
				return fmt.Errorf("store new signing key: %w", err)
			}
			if !req.RetireExisting {
				return nil
			}
			for _, kid := range previous {
				err := tx.SigningKeys().RetireSigningKey(ctx, kid, now, now.Add(s.grace()))
				if err != nil && !errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("retire key %s: %w", kid, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		info.ExpiresAt = &rec.ExpiresAt
	} else {
		var err error
		signer, _, err = jwtx.GenerateSigner(jwtx.NewKeyID(), s.Algorithm, s.RSABits)
		if err != nil {
			return nil, fmt.Errorf("generate signer: %w", err)
		}
	}

	if err := s.KeyManager.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("add signer: %w", err)
	}
	info.Kid = signer.KID()

	var retired []string
	if req.RetireExisting {
		for _, kid := range previous {
			if err := s.KeyManager.RetireSigner(kid); err != nil {
				l.Warn("signer retire failed", slog.String("kid", kid), slog.Any("error", err))
				continue
			}
			retired = append(retired, kid)
		}
	}

	l.Info("signing key rotated", slog.String("kid", info.Kid), slog.Int("retired", len(retired)))
	return &RotateKeyResponse{
		NewKey:      info,
		RetiredKids: retired,
		ActiveKeys:  s.KeyManager.NumSigners(),
	}, nil
}

// ListSigningKeys reports stored keys in persistent mode and in-memory
// signers otherwise.
func (s *KeyRotationService) ListSigningKeys(ctx context.Context) ([]KeyInfo, error) {
	active := s.KeyManager.ActiveKIDs()

	if s.Store == nil {
		out := make([]KeyInfo, len(active))
		for i, kid := range active {
			out[i] = KeyInfo{Kid: kid, Algorithm: s.KeyManager.Algorithm(), Active: true}
		}
		return out, nil
	}

	keys, err := s.Store.SigningKeys().ListVerifiableSigningKeys(ctx, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]KeyInfo, len(keys))
	for i, k := range keys {
		out[i] = keyInfo(k, slices.Contains(active, k.Kid))
	}
	return out, nil
}

func keyInfo(k domain.SigningKey, active bool) KeyInfo {
	return KeyInfo{
		Kid:       k.Kid,
		Algorithm: k.Algorithm,
		Active:    active,
		CreatedAt: &k.CreatedAt,
		RetiredAt: k.RetiredAt,
		ExpiresAt: &k.ExpiresAt,
	}
}

// RetireKey stops kid from signing. The last active signer can never be
// retired.
func (s *KeyRotationService) RetireKey(ctx context.Context, kid string) error {
	if err := s.KeyManager.RetireSigner(kid); err != nil {
		if errors.Is(err, jwtx.ErrSignerNotFound) {
			return ErrKeyNotFound
		}
		return err
	}

	if s.Store != nil {
		now := s.now()
		err := s.Store.SigningKeys().RetireSigningKey(ctx, kid, now, now.Add(s.grace()))
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("retire key: %w", err)
		}
	}

	slogx.FromContext(ctx).Info("signing key retired", slog.String("kid", kid))
	return nil
}
